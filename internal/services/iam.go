package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudemu/zero/internal/api"
	apperrors "github.com/cloudemu/zero/internal/errors"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Principal kinds.
const (
	KindUser  = "user"
	KindRole  = "role"
	KindGroup = "group"
)

var principalTables = map[string]string{
	KindUser:  "iam_users",
	KindRole:  "iam_roles",
	KindGroup: "iam_groups",
}

// IAMService stores users, roles and groups and evaluates user policies.
type IAMService struct {
	db     *sql.DB
	logger *slog.Logger
}

func (s *IAMService) migrate(ctx context.Context) error {
	stmts := make([]string, 0, len(principalTables))
	for _, table := range []string{"iam_users", "iam_roles", "iam_groups"} {
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			arn TEXT NOT NULL,
			policy TEXT NOT NULL DEFAULT '{}'
		)`, table))
	}
	return execAll(ctx, s.db, stmts...)
}

func tableFor(kind string) (string, error) {
	table, ok := principalTables[kind]
	if !ok {
		return "", apperrors.ErrBadRequest(fmt.Sprintf("unknown principal kind %q", kind), nil)
	}
	return table, nil
}

// CreatePrincipal creates a user, role or group and returns its ARN.
// Creating an existing principal keeps its policy and returns the same ARN.
func (s *IAMService) CreatePrincipal(ctx context.Context, kind, name string) (string, error) {
	table, err := tableFor(kind)
	if err != nil {
		return "", err
	}
	if name == "" || strings.ContainsAny(name, "/: ") {
		return "", apperrors.ErrValidation(fmt.Sprintf("invalid %s name %q", kind, name), nil)
	}

	arn := IAMArn(kind, name)
	stmt := fmt.Sprintf("INSERT INTO %s (name, arn, policy) VALUES (?, ?, '{}') ON CONFLICT(name) DO NOTHING", table)
	if _, err = s.db.ExecContext(ctx, stmt, name, arn); err != nil {
		return "", internalError("create "+kind+" "+name, err)
	}

	s.logger.Debug("principal created", "kind", kind, "name", name, "arn", arn)
	return arn, nil
}

// ListPrincipals returns every principal of a kind.
func (s *IAMService) ListPrincipals(ctx context.Context, kind string) ([]api.Principal, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT name, arn, policy FROM %s ORDER BY name", table))
	if err != nil {
		return nil, internalError("list "+kind+"s", err)
	}
	defer func() { _ = rows.Close() }()

	principals := []api.Principal{}
	for rows.Next() {
		var name string
		var p api.Principal
		if err = rows.Scan(&name, &p.Arn, &p.Policy); err != nil {
			return nil, internalError("scan "+kind, err)
		}
		switch kind {
		case KindUser:
			p.UserName = name
		case KindRole:
			p.RoleName = name
		case KindGroup:
			p.GroupName = name
		}
		principals = append(principals, p)
	}
	return principals, rows.Err()
}

// normalizePolicy accepts a JSON object or a JSON string holding one and
// returns the compact document.
func normalizePolicy(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return "", apperrors.ErrValidation("Invalid JSON policy", err)
		}
		raw = []byte(inner)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", apperrors.ErrValidation("Invalid JSON policy", err)
	}
	return compact.String(), nil
}

// AttachUserPolicy replaces the policy document of a user.
func (s *IAMService) AttachUserPolicy(ctx context.Context, user string, document json.RawMessage) error {
	policy, err := normalizePolicy(document)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "UPDATE iam_users SET policy = ? WHERE name = ?", policy, user)
	if err != nil {
		return internalError("attach policy", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return internalError("attach policy", err)
	}
	if affected == 0 {
		return apperrors.ErrNotFound(fmt.Sprintf("User %s not found", user), nil)
	}
	return nil
}

// stringList decodes a JSON string or array of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = stringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

type statement struct {
	Effect   string     `json:"Effect"`
	Action   stringList `json:"Action"`
	Resource stringList `json:"Resource"`
}

// statementList decodes a single statement object or an array of them.
type statementList []statement

func (l *statementList) UnmarshalJSON(data []byte) error {
	var single statement
	if err := json.Unmarshal(data, &single); err == nil {
		*l = statementList{single}
		return nil
	}
	var many []statement
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

type policyDocument struct {
	Statement statementList `json:"Statement"`
}

// CheckPermission reports whether user may perform action on resource.
// Unknown users and malformed policies are denied.
func (s *IAMService) CheckPermission(ctx context.Context, user, action, resource string) (bool, error) {
	var policy string
	err := s.db.QueryRowContext(ctx, "SELECT policy FROM iam_users WHERE name = ?", user).Scan(&policy)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, internalError("load policy", err)
	}

	var doc policyDocument
	if err = json.Unmarshal([]byte(policy), &doc); err != nil {
		s.logger.Debug("policy document is malformed, denying", "user", user, "error", err)
		return false, nil
	}

	enforcer, err := newPolicyEnforcer(user, doc)
	if err != nil {
		return false, internalError("build policy enforcer", err)
	}

	allowed, err := enforcer.Enforce(user, resource, action)
	if err != nil {
		return false, internalError("evaluate policy", err)
	}

	s.logger.Debug("policy evaluation result", "user", user, "action", action, "resource", resource, "allowed", allowed)
	return allowed, nil
}

func newPolicyEnforcer(user string, doc policyDocument) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	for _, st := range doc.Statement {
		var effect string
		switch strings.ToLower(st.Effect) {
		case "allow":
			effect = "allow"
		case "deny":
			effect = "deny"
		default:
			continue
		}
		for _, action := range st.Action {
			for _, resource := range st.Resource {
				if _, err = enforcer.AddPolicy(user, resource, action, effect); err != nil {
					return nil, fmt.Errorf("failed to add policy rule: %w", err)
				}
			}
		}
	}
	return enforcer, nil
}
