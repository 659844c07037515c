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
)

// EKS actions accepted by Handle.
const (
	ActionCreateCluster     = "CreateCluster"
	ActionDescribeCluster   = "DescribeCluster"
	ActionDeleteCluster     = "DeleteCluster"
	ActionCreateNodegroup   = "CreateNodegroup"
	ActionDescribeNodegroup = "DescribeNodegroup"
	ActionDeleteNodegroup   = "DeleteNodegroup"
)

const (
	eksStatusActive      = "ACTIVE"
	defaultClusterName   = "default"
	defaultNodegroupName = "default-ng"
	// base64 of "test-cert"
	mockCertificateData = "dGVzdC1jZXJ0"
)

// EKSService keeps mock Kubernetes cluster and node group metadata. Every
// resource becomes ACTIVE as soon as it is created.
type EKSService struct {
	db     *sql.DB
	logger *slog.Logger
}

func (s *EKSService) migrate(ctx context.Context) error {
	return execAll(ctx, s.db,
		`CREATE TABLE IF NOT EXISTS eks_clusters (
			name TEXT PRIMARY KEY,
			arn TEXT NOT NULL,
			status TEXT NOT NULL,
			version TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS eks_nodegroups (
			cluster_name TEXT NOT NULL,
			name TEXT NOT NULL,
			arn TEXT NOT NULL,
			status TEXT NOT NULL,
			PRIMARY KEY (cluster_name, name)
		)`,
	)
}

// Handle dispatches an EKS action and returns the response body.
func (s *EKSService) Handle(ctx context.Context, action string, req api.EKSRequest) (any, error) {
	if req.Name == "" {
		req.Name = defaultClusterName
	}
	if req.NodegroupName == "" {
		req.NodegroupName = defaultNodegroupName
	}

	switch action {
	case ActionCreateCluster:
		return s.CreateCluster(ctx, req.Name)
	case ActionDescribeCluster:
		return s.DescribeCluster(ctx, req.Name)
	case ActionDeleteCluster:
		return struct{}{}, s.DeleteCluster(ctx, req.Name)
	case ActionCreateNodegroup:
		return s.CreateNodegroup(ctx, req.Name, req.NodegroupName)
	case ActionDescribeNodegroup:
		return s.DescribeNodegroup(ctx, req.Name, req.NodegroupName)
	case ActionDeleteNodegroup:
		return struct{}{}, s.DeleteNodegroup(ctx, req.Name, req.NodegroupName)
	default:
		return nil, apperrors.ErrBadRequest(fmt.Sprintf("Unknown EKS action: %s", action), nil)
	}
}

func clusterFor(name, arn, status, version string) *api.ClusterResponse {
	return &api.ClusterResponse{Cluster: api.Cluster{
		Name:                 name,
		Arn:                  arn,
		Status:               status,
		Endpoint:             constants.EKSEndpoint,
		CertificateAuthority: api.CertificateAuthority{Data: mockCertificateData},
		Version:              version,
	}}
}

// CreateCluster records a cluster. Creating an existing cluster returns it.
func (s *EKSService) CreateCluster(ctx context.Context, name string) (*api.ClusterResponse, error) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO eks_clusters (name, arn, status, version) VALUES (?, ?, ?, ?) ON CONFLICT(name) DO NOTHING",
		name, EKSArn("cluster/"+name), eksStatusActive, constants.EKSVersion)
	if err != nil {
		return nil, internalError("create cluster "+name, err)
	}
	return s.DescribeCluster(ctx, name)
}

// DescribeCluster returns a cluster.
func (s *EKSService) DescribeCluster(ctx context.Context, name string) (*api.ClusterResponse, error) {
	var arn, status, version string
	err := s.db.QueryRowContext(ctx,
		"SELECT arn, status, version FROM eks_clusters WHERE name = ?", name).Scan(&arn, &status, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound(fmt.Sprintf("cluster %s not found", name), nil)
	}
	if err != nil {
		return nil, internalError("describe cluster "+name, err)
	}
	return clusterFor(name, arn, status, version), nil
}

// DeleteCluster removes a cluster and its node groups.
func (s *EKSService) DeleteCluster(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM eks_clusters WHERE name = ?", name)
	if err != nil {
		return internalError("delete cluster "+name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrNotFound(fmt.Sprintf("cluster %s not found", name), nil)
	}

	if _, err = s.db.ExecContext(ctx, "DELETE FROM eks_nodegroups WHERE cluster_name = ?", name); err != nil {
		return internalError("delete node groups of "+name, err)
	}
	return nil
}

// CreateNodegroup records a node group in an existing cluster.
func (s *EKSService) CreateNodegroup(ctx context.Context, cluster, name string) (*api.NodegroupResponse, error) {
	if _, err := s.DescribeCluster(ctx, cluster); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO eks_nodegroups (cluster_name, name, arn, status) VALUES (?, ?, ?, ?)
		 ON CONFLICT(cluster_name, name) DO NOTHING`,
		cluster, name, EKSArn(fmt.Sprintf("nodegroup/%s/%s", cluster, name)), eksStatusActive)
	if err != nil {
		return nil, internalError("create node group "+name, err)
	}
	return s.DescribeNodegroup(ctx, cluster, name)
}

// DescribeNodegroup returns a node group.
func (s *EKSService) DescribeNodegroup(ctx context.Context, cluster, name string) (*api.NodegroupResponse, error) {
	ng := api.Nodegroup{NodegroupName: name, ClusterName: cluster}
	err := s.db.QueryRowContext(ctx,
		"SELECT arn, status FROM eks_nodegroups WHERE cluster_name = ? AND name = ?",
		cluster, name).Scan(&ng.NodegroupArn, &ng.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound(fmt.Sprintf("node group %s not found in cluster %s", name, cluster), nil)
	}
	if err != nil {
		return nil, internalError("describe node group "+name, err)
	}
	return &api.NodegroupResponse{Nodegroup: ng}, nil
}

// DeleteNodegroup removes a node group.
func (s *EKSService) DeleteNodegroup(ctx context.Context, cluster, name string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM eks_nodegroups WHERE cluster_name = ? AND name = ?", cluster, name)
	if err != nil {
		return internalError("delete node group "+name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrNotFound(fmt.Sprintf("node group %s not found in cluster %s", name, cluster), nil)
	}
	return nil
}
