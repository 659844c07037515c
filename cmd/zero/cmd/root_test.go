package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"
	"github.com/cloudemu/zero/internal/services"
	"github.com/cloudemu/zero/internal/zerocli"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	calls []*zerocli.Cli
	err   error
}

func (d *recordingDispatcher) dispatch(_ context.Context, cli *zerocli.Cli) error {
	d.calls = append(d.calls, cli)
	return d.err
}

func run(t *testing.T, d *recordingDispatcher, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, &stdout, &stderr, d.dispatch)
	return code, stdout.String(), stderr.String()
}

func TestRun_Help(t *testing.T) {
	d := &recordingDispatcher{}
	code, stdout, _ := run(t, d, "--help")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "workload")
	assert.Empty(t, d.calls)
}

func TestRun_SubcommandHelp(t *testing.T) {
	d := &recordingDispatcher{}
	code, stdout, _ := run(t, d, "workload", "up", "-h")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "--image")
	assert.Empty(t, d.calls)
}

func TestRun_Version(t *testing.T) {
	d := &recordingDispatcher{}
	code, stdout, _ := run(t, d, "--version")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "zero version "+*constants.GetVersion())
	assert.Empty(t, d.calls)
}

func TestRun_NoArguments(t *testing.T) {
	d := &recordingDispatcher{}
	code, _, stderr := run(t, d)

	assert.Equal(t, apperrors.ExitUsage, code)
	assert.Contains(t, stderr, "a command is required")
	assert.Contains(t, stderr, "--help")
	assert.Empty(t, d.calls)
}

func TestRun_Success(t *testing.T) {
	d := &recordingDispatcher{}
	code, _, stderr := run(t, d, "workload", "ls")

	assert.Equal(t, 0, code)
	assert.Empty(t, stderr)
	require.Len(t, d.calls, 1)
	assert.Equal(t, zerocli.WorkloadList{}, d.calls[0].Command)
}

func TestRun_DispatchFailureShowsCauseChain(t *testing.T) {
	d := &recordingDispatcher{
		err: fmt.Errorf("failed to init engine: %w", errors.New("docker daemon unreachable")),
	}
	code, _, stderr := run(t, d, "node", "list")

	assert.Equal(t, apperrors.ExitFailure, code)
	assert.Contains(t, stderr, "failed to init engine")
	assert.Contains(t, stderr, "docker daemon unreachable")
	assert.Len(t, d.calls, 1)
}

func TestRun_DispatchUsageError(t *testing.T) {
	d := &recordingDispatcher{err: apperrors.UsageError(errors.New("--watch requires a file"))}
	code, _, stderr := run(t, d, "workload", "ls")

	assert.Equal(t, apperrors.ExitUsage, code)
	assert.Contains(t, stderr, "--watch requires a file")
}

func TestRun_MalformedArgumentsSkipDispatch(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown command", []string{"frobnicate"}, `unknown command "frobnicate"`},
		{"unknown subcommand", []string{"workload", "explode"}, `unknown command "explode"`},
		{"group without subcommand", []string{"queue"}, "requires a subcommand"},
		{"missing required flag", []string{"workload", "up", "--id", "web"}, `"image"`},
		{"unknown flag", []string{"volume", "ls", "--bogus"}, "unknown flag: --bogus"},
		{"bad int", []string{"volume", "create", "--id", "v", "--size", "big"}, "invalid argument"},
		{"bad output format", []string{"-o", "xml", "workload", "ls"}, "invalid output format"},
		{"bad timeout", []string{"--timeout", "soon", "workload", "ls"}, "invalid timeout format"},
		{"negative timeout", []string{"--timeout=-5s", "workload", "ls"}, "must not be negative"},
		{"bad lb type", []string{"lb", "create", "-n", "edge", "-t", "classic"}, "invalid --lb-type"},
		{"stray positional", []string{"workload", "ls", "extra"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &recordingDispatcher{}
			code, _, stderr := run(t, d, tt.args...)

			assert.Equal(t, apperrors.ExitUsage, code)
			assert.Contains(t, stderr, tt.wantErr)
			assert.Contains(t, stderr, "for usage.")
			assert.Empty(t, d.calls)
		})
	}
}

func TestParse_GlobalsAndCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cli, err := Parse([]string{"--native", "network", "create", "--id", "test"}, &stdout, &stderr)

	require.NoError(t, err)
	require.NotNil(t, cli)
	assert.True(t, cli.Native)
	assert.Equal(t, zerocli.NetworkCreate{ID: "test", CIDR: constants.DefaultNetworkCIDR}, cli.Command)
	assert.Equal(t, constants.OutputText, cli.Output)
	assert.Equal(t, constants.DefaultCLITimeout, cli.Timeout)
	assert.Same(t, &stdout, cli.Stdout)
	assert.Same(t, &stderr, cli.Stderr)
}

func TestParse_AmbientFlags(t *testing.T) {
	cli, err := Parse([]string{
		"--endpoint", "http://10.0.0.5:8080", "-o", "json", "--timeout", "90",
		"--config", "/tmp/zero.yaml", "--debug", "--verbose",
		"queue", "send", "-n", "jobs", "-b", "hello",
	}, &bytes.Buffer{}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8080", cli.Endpoint)
	assert.Equal(t, constants.OutputJSON, cli.Output)
	assert.Equal(t, 90*time.Second, cli.Timeout)
	assert.Equal(t, "/tmp/zero.yaml", cli.ConfigPath)
	assert.True(t, cli.Debug)
	assert.True(t, cli.Verbose)
	assert.Equal(t, zerocli.QueueSend{Queue: "jobs", Body: "hello"}, cli.Command)
}

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		args []string
		want zerocli.Command
	}{
		{[]string{"workload", "up", "-i", "web", "-m", "nginx"}, zerocli.WorkloadUp{ID: "web", Image: "nginx"}},
		{[]string{"workload", "down", "-i", "web"}, zerocli.WorkloadDown{ID: "web"}},
		{[]string{"volume", "create", "-i", "data"}, zerocli.VolumeCreate{ID: "data", SizeGB: constants.DefaultVolumeSizeGB}},
		{[]string{"volume", "create", "-i", "data", "-s", "20"}, zerocli.VolumeCreate{ID: "data", SizeGB: 20}},
		{[]string{"node", "ls"}, zerocli.NodeList{}},
		{[]string{"store", "create", "-n", "photos"}, zerocli.StoreCreate{Bucket: "photos"}},
		{[]string{"db", "create", "-n", "users"}, zerocli.DBCreate{Table: "users", PK: "id"}},
		{
			[]string{"db", "put", "-n", "users", "--pk-value", "u1", "--item", `{"age":3}`},
			zerocli.DBPut{Table: "users", PKValue: "u1", Item: `{"age":3}`},
		},
		{
			[]string{"func", "deploy", "-n", "hello", "-c", "print(1)", "--handler", "main.py", "--watch"},
			zerocli.FuncDeploy{Function: "hello", Code: "print(1)", Handler: "main.py", Watch: true},
		},
		{[]string{"func", "invoke", "-n", "hello"}, zerocli.FuncInvoke{Function: "hello", Payload: "{}"}},
		{[]string{"queue", "receive", "-n", "jobs"}, zerocli.QueueReceive{Queue: "jobs"}},
		{[]string{"queue", "delete", "-n", "jobs", "--handle", "h1"}, zerocli.QueueDelete{Queue: "jobs", Handle: "h1"}},
		{[]string{"iam", "create-user", "--username", "alice"}, zerocli.IAMCreatePrincipal{Kind: "user", Principal: "alice"}},
		{[]string{"iam", "create-role", "--rolename", "admin"}, zerocli.IAMCreatePrincipal{Kind: "role", Principal: "admin"}},
		{[]string{"iam", "list-groups"}, zerocli.IAMListPrincipals{Kind: "group"}},
		{
			[]string{"iam", "check", "--username", "alice", "--action", "s3:GetObject", "--resource", "*"},
			zerocli.IAMCheck{Username: "alice", Action: "s3:GetObject", Resource: "*"},
		},
		{[]string{"lb", "create", "-n", "edge"}, zerocli.LBCreate{LoadBalancer: "edge", Type: "application"}},
		{
			[]string{"lb", "register", "--group", "arn:tg", "--id", "web"},
			zerocli.LBRegister{TargetGroupArn: "arn:tg", TargetID: "web", Port: 80},
		},
		{
			[]string{"eks", "create-nodegroup", "-n", "prod", "--nodegroup", "workers"},
			zerocli.EKS{Action: services.ActionCreateNodegroup, Cluster: "prod", Nodegroup: "workers"},
		},
		{[]string{"eks", "describe-cluster", "-n", "prod"}, zerocli.EKS{Action: services.ActionDescribeCluster, Cluster: "prod"}},
		{[]string{"serve", "--port", "9090", "--mock"}, zerocli.Serve{Port: 9090, Mock: true}},
		{[]string{"events"}, zerocli.Events{}},
	}

	for _, tt := range tests {
		t.Run(tt.want.Name(), func(t *testing.T) {
			cli, err := Parse(tt.args, &bytes.Buffer{}, &bytes.Buffer{})
			require.NoError(t, err)
			require.NotNil(t, cli)
			assert.Equal(t, tt.want, cli.Command)
		})
	}
}

func TestParse_IsolatedBetweenCalls(t *testing.T) {
	first, err := Parse([]string{"--native", "workload", "ls"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)
	second, err := Parse([]string{"workload", "ls"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.True(t, first.Native)
	assert.False(t, second.Native)
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", constants.DefaultCLITimeout, false},
		{"10m", 10 * time.Minute, false},
		{"30s", 30 * time.Second, false},
		{"600", 600 * time.Second, false},
		{"0", 0, false},
		{"-5", 0, true},
		{"-5s", 0, true},
		{"later", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimeout(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
