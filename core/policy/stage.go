package policy

import (
	"fmt"
	"strings"
)

// Stage is the operating mode of a run.
type Stage string

const (
	// StageAssess is read-only: no writes, prevalence report only.
	StageAssess Stage = "assess"
	// StageReport writes records with a passive action.
	StageReport Stage = "report"
	// StageDeploy writes records with the active deploy action.
	StageDeploy Stage = "deploy"
)

// ParseStage parses a stage name, case-insensitively.
func ParseStage(s string) (Stage, error) {
	switch st := Stage(strings.ToLower(strings.TrimSpace(s))); st {
	case StageAssess, StageReport, StageDeploy:
		return st, nil
	default:
		return "", fmt.Errorf("unsupported stage %q: use assess, report, or deploy", s)
	}
}

// IsWrite reports whether the stage submits records.
func (s Stage) IsWrite() bool {
	return s == StageReport || s == StageDeploy
}

func (s Stage) String() string {
	return string(s)
}
