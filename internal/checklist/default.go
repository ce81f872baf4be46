package checklist

var defaultEntries = []Entry{
	{
		ID:   "usage-rights",
		Name: "Usage Rights and Data Retention Terms",
		Prompts: []string{
			"Does the tool clearly outline user rights, such as data access, deletion, and portability?",
			"Are there explicit terms on data retention periods?",
			"Does it specify opt-out options for data collection or processing?",
			"Are there clauses on data sharing with third parties?",
			"Is there a mechanism for users to request data erasure or export?",
		},
	},
	{
		ID:   "model-training",
		Name: "Model Training Sources and Ownership Transparency",
		Prompts: []string{
			"Does the tool disclose the sources of training data?",
			"Is there transparency on data curation methods?",
			"Are model ownership and intellectual property rights clearly stated?",
			"Does it provide details on model updates and versioning?",
			"Are there audits or reports on training data quality?",
		},
	},
	{
		ID:   "data-handling",
		Name: "Server Location and Data Handling",
		Prompts: []string{
			"Is the server location disclosed and compliant with laws?",
			"Does the tool use encryption for data in transit and at rest?",
			"Are there guarantees on data isolation?",
			"Is there information on backup and disaster recovery?",
			"Does it adhere to standards like SOC 2 or ISO 27001?",
		},
	},
	{
		ID:   "legal-compliance",
		Name: "Legal and Compliance Review for Client-Facing Work",
		Prompts: []string{
			"Has the tool undergone legal review for compliance?",
			"Does it include indemnification clauses?",
			"Are there certifications for industry standards?",
			"Does it restrict use in regulated industries?",
			"Is there a process for reporting compliance issues?",
		},
	},
	{
		ID:   "confidential-materials",
		Name: "Risk Level for Uploading Confidential Materials",
		Prompts: []string{
			"Does the tool state it does not retain confidential data?",
			"Are there options for local processing?",
			"What is the risk of data leakage?",
			"Does it offer watermarking or access controls?",
			"Is there a policy on handling data breaches?",
		},
	},
}

var defaultCatalog = mustCatalog(defaultEntries)

// Default returns the built-in AI tool vetting checklist.
func Default() *Catalog {
	return defaultCatalog
}

func mustCatalog(entries []Entry) *Catalog {
	c, err := NewCatalog(entries)
	if err != nil {
		panic(err)
	}
	return c
}
