package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"ai-vetting/backend/internal/checklist"
	"ai-vetting/backend/internal/report"
	"ai-vetting/backend/internal/scoring"
	"ai-vetting/backend/internal/sheet"
)

func main() {
	var (
		answersPath = flag.String("answers", "", "CSV answer sheet (category,index,question,response,note)")
		format      = flag.String("format", "both", "Report format: txt, pdf or both")
		outDir      = flag.String("out", ".", "Directory to write reports into")
		template    = flag.Bool("template", false, "Write an empty answer sheet to stdout and exit")
	)
	flag.Parse()

	catalog := checklist.Default()

	if *template {
		if err := sheet.Write(os.Stdout, checklist.NewSession(catalog)); err != nil {
			logrus.Fatalf("write template: %v", err)
		}
		return
	}

	formats, err := parseFormats(*format)
	if err != nil {
		logrus.Fatalf("%v", err)
	}

	session := checklist.NewSession(catalog)
	if path := strings.TrimSpace(*answersPath); path != "" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			logrus.Fatalf("open answers: %v", err)
		}
		parsed, stats, err := sheet.Read(f, catalog)
		f.Close()
		if err != nil {
			logrus.Fatalf("parse answers: %v", err)
		}
		session = parsed
		logrus.WithFields(logrus.Fields{
			"path":       path,
			"rows":       stats.Rows,
			"duplicates": stats.Duplicates,
		}).Info("answer sheet loaded")
	} else {
		logrus.Warn("no -answers given; every question will be reported as N/A")
	}

	result := scoring.Assess(session.Responses())
	fmt.Printf("Overall Risk Level: %s\n", result.Tier)
	fmt.Println(scoring.Rubric)

	rep := report.FromSession(session)
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logrus.Fatalf("create output directory: %v", err)
	}
	// render everything first so an encoding failure writes nothing
	artifacts := make([]report.Artifact, 0, len(formats))
	for _, f := range formats {
		artifact, err := report.Export(rep, f)
		if err != nil {
			logrus.Fatalf("export %s: %v", f, err)
		}
		artifacts = append(artifacts, artifact)
	}
	for _, artifact := range artifacts {
		dest := filepath.Join(*outDir, artifact.Filename)
		if err := writeFileAtomic(dest, artifact.Data); err != nil {
			logrus.Fatalf("write %s: %v", dest, err)
		}
		logrus.WithFields(logrus.Fields{
			"path":  dest,
			"bytes": len(artifact.Data),
		}).Info("report written")
	}
}

func parseFormats(value string) ([]report.Format, error) {
	if strings.EqualFold(strings.TrimSpace(value), "both") {
		return []report.Format{report.FormatText, report.FormatPDF}, nil
	}
	f, err := report.ParseFormat(value)
	if err != nil {
		return nil, err
	}
	return []report.Format{f}, nil
}

// writeFileAtomic writes via a temp file so a failed write never leaves a
// partial report behind.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".vetreport-*")
	if err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
