package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"

	"github.com/google/uuid"
)

const (
	lbStatusActive = "active"
	targetHealthy  = "healthy"
)

// LBService manages load balancers, listeners, target groups and targets.
type LBService struct {
	db     *sql.DB
	logger *slog.Logger
}

func (s *LBService) migrate(ctx context.Context) error {
	return execAll(ctx, s.db,
		`CREATE TABLE IF NOT EXISTS load_balancers (
			name TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			dns_name TEXT NOT NULL,
			status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS target_groups (
			arn TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			port INTEGER NOT NULL,
			protocol TEXT NOT NULL,
			health_check_path TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS listeners (
			arn TEXT PRIMARY KEY,
			lb_name TEXT NOT NULL,
			port INTEGER NOT NULL,
			protocol TEXT NOT NULL,
			target_group_arn TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS targets (
			group_arn TEXT NOT NULL,
			target_id TEXT NOT NULL,
			port INTEGER NOT NULL,
			status TEXT NOT NULL,
			PRIMARY KEY (group_arn, target_id)
		)`,
	)
}

// CreateLoadBalancer creates or replaces a load balancer.
func (s *LBService) CreateLoadBalancer(ctx context.Context, name, lbType string) (*api.LoadBalancer, error) {
	if err := validLBName(name); err != nil {
		return nil, err
	}
	if lbType == "" {
		lbType = constants.DefaultLoadBalancerType
	}

	lb := &api.LoadBalancer{
		LoadBalancerName: name,
		DNSName:          name + constants.LoadBalancerDNSSuffix,
		Status:           api.LoadBalancerState{Code: lbStatusActive},
		Type:             lbType,
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO load_balancers (name, type, dns_name, status) VALUES (?, ?, ?, ?)",
		lb.LoadBalancerName, lb.Type, lb.DNSName, lb.Status.Code)
	if err != nil {
		return nil, internalError("create load balancer "+name, err)
	}
	return lb, nil
}

// ListLoadBalancers returns every load balancer.
func (s *LBService) ListLoadBalancers(ctx context.Context) ([]api.LoadBalancer, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, type, dns_name, status FROM load_balancers ORDER BY name")
	if err != nil {
		return nil, internalError("list load balancers", err)
	}
	defer func() { _ = rows.Close() }()

	lbs := []api.LoadBalancer{}
	for rows.Next() {
		var lb api.LoadBalancer
		if err = rows.Scan(&lb.LoadBalancerName, &lb.Type, &lb.DNSName, &lb.Status.Code); err != nil {
			return nil, internalError("scan load balancer", err)
		}
		lbs = append(lbs, lb)
	}
	return lbs, rows.Err()
}

// CreateTargetGroup creates a target group and returns its ARN.
func (s *LBService) CreateTargetGroup(ctx context.Context, name string, port int, protocol string) (string, error) {
	if err := validLBName(name); err != nil {
		return "", err
	}
	if port == 0 {
		port = constants.DefaultTargetPort
	}
	if protocol == "" {
		protocol = constants.DefaultProtocol
	}

	arn := ELBArn(fmt.Sprintf("targetgroup/%s/%s", name, uuid.NewString()))
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO target_groups (arn, name, port, protocol, health_check_path) VALUES (?, ?, ?, ?, ?)",
		arn, name, port, protocol, constants.HealthCheckPath)
	if err != nil {
		return "", internalError("create target group "+name, err)
	}
	return arn, nil
}

func (s *LBService) requireTargetGroup(ctx context.Context, groupArn string) (int, error) {
	if _, ok := ParseARN(groupArn, "elasticloadbalancing"); !ok {
		return 0, apperrors.ErrValidation(fmt.Sprintf("invalid target group ARN %q", groupArn), nil)
	}

	var port int
	err := s.db.QueryRowContext(ctx, "SELECT port FROM target_groups WHERE arn = ?", groupArn).Scan(&port)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.ErrNotFound(fmt.Sprintf("target group %s not found", groupArn), nil)
	}
	if err != nil {
		return 0, internalError("look up target group", err)
	}
	return port, nil
}

// RegisterTarget adds a target to a group. A zero port uses the group's port.
func (s *LBService) RegisterTarget(ctx context.Context, groupArn, targetID string, port int) error {
	groupPort, err := s.requireTargetGroup(ctx, groupArn)
	if err != nil {
		return err
	}
	if port == 0 {
		port = groupPort
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO targets (group_arn, target_id, port, status) VALUES (?, ?, ?, ?)",
		groupArn, targetID, port, targetHealthy)
	if err != nil {
		return internalError("register target "+targetID, err)
	}
	return nil
}

// CreateListener attaches a listener forwarding to a target group and
// returns its ARN.
func (s *LBService) CreateListener(
	ctx context.Context,
	lbName string,
	port int,
	protocol, groupArn string,
) (string, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM load_balancers WHERE name = ?", lbName).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrNotFound(fmt.Sprintf("load balancer %s not found", lbName), nil)
	}
	if err != nil {
		return "", internalError("look up load balancer", err)
	}

	if _, err = s.requireTargetGroup(ctx, groupArn); err != nil {
		return "", err
	}
	if port == 0 {
		port = constants.DefaultTargetPort
	}
	if protocol == "" {
		protocol = constants.DefaultProtocol
	}

	arn := ELBArn(fmt.Sprintf("listener/%s/%s", lbName, uuid.NewString()))
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO listeners (arn, lb_name, port, protocol, target_group_arn) VALUES (?, ?, ?, ?, ?)",
		arn, lbName, port, protocol, groupArn)
	if err != nil {
		return "", internalError("create listener", err)
	}
	return arn, nil
}

func validLBName(name string) error {
	if !queueNamePattern.MatchString(name) {
		return apperrors.ErrValidation(fmt.Sprintf("invalid name %q", name),
			errors.New("names are 1-80 letters, digits, hyphens or underscores"))
	}
	return nil
}
