package services

import (
	_ "embed"
)

// policyModel is the Casbin model used to evaluate IAM policy documents.
// Statements become p-rules; an explicit deny overrides any allow.
//
//go:embed casbin/model.conf
var policyModel string
