package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cloudemu/zero/internal/api"
	apperrors "github.com/cloudemu/zero/internal/errors"
	"github.com/cloudemu/zero/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	result *ExecResult
	err    error
	calls  [][]string
}

func (f *fakeExecutor) Execute(_ context.Context, program string, args ...string) (*ExecResult, error) {
	f.calls = append(f.calls, append([]string{program}, args...))
	return f.result, f.err
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestServices(t *testing.T, opts Options) *Services {
	t.Helper()
	eng := testutil.NewTestEngine(t)
	svc, err := New(context.Background(), eng, opts, testutil.SilentLogger())
	require.NoError(t, err)
	return svc
}

func TestNew_IsIdempotent(t *testing.T) {
	eng := testutil.NewTestEngine(t)
	ctx := context.Background()

	_, err := New(ctx, eng, Options{}, nil)
	require.NoError(t, err)
	_, err = New(ctx, eng, Options{}, nil)
	require.NoError(t, err)
}

func TestStore(t *testing.T) {
	svc := newTestServices(t, Options{})
	ctx := context.Background()

	buckets, err := svc.Store.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Empty(t, buckets)

	require.NoError(t, svc.Store.CreateBucket(ctx, "photos"))
	require.NoError(t, svc.Store.CreateBucket(ctx, "logs"))

	buckets, err = svc.Store.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"logs", "photos"}, buckets)

	err = svc.Store.CreateBucket(ctx, "../escape")
	testutil.AssertAppErrorCode(t, err, apperrors.ErrCodeValidation)
}

func TestDB_Tables(t *testing.T) {
	svc := newTestServices(t, Options{})
	ctx := context.Background()

	resp, err := svc.DB.CreateTable(ctx, "users", "")
	require.NoError(t, err)
	assert.Equal(t, "Created", resp.Status)
	assert.Equal(t, "id", resp.PK)

	_, err = svc.DB.CreateTable(ctx, "orders", "order_id")
	require.NoError(t, err)
	resp, err = svc.DB.CreateTable(ctx, "orders", "other")
	require.NoError(t, err)
	assert.Equal(t, "order_id", resp.PK)

	tables, err := svc.DB.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
}

func TestDB_RejectsInvalidTableNames(t *testing.T) {
	svc := newTestServices(t, Options{})

	for _, name := range []string{"", "1abc", "users; DROP TABLE nodes", "a-b", strings.Repeat("x", 64)} {
		_, err := svc.DB.CreateTable(context.Background(), name, "")
		testutil.AssertAppErrorCode(t, err, apperrors.ErrCodeValidation)
	}
}

func TestDB_Items(t *testing.T) {
	svc := newTestServices(t, Options{})
	ctx := context.Background()

	_, err := svc.DB.CreateTable(ctx, "users", "")
	require.NoError(t, err)

	require.NoError(t, svc.DB.PutItem(ctx, "users", "u1", json.RawMessage(`{"name": "alice"}`)))
	item, err := svc.DB.GetItem(ctx, "users", "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"alice"}`, string(item.Item))

	require.NoError(t, svc.DB.PutItem(ctx, "users", "u1", json.RawMessage(`{"name":"bob"}`)))
	item, err = svc.DB.GetItem(ctx, "users", "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"bob"}`, string(item.Item))

	_, err = svc.DB.GetItem(ctx, "users", "missing")
	testutil.AssertAppErrorStatus(t, err, http.StatusNotFound)

	err = svc.DB.PutItem(ctx, "nope", "u1", json.RawMessage(`{}`))
	testutil.AssertAppErrorStatus(t, err, http.StatusNotFound)

	err = svc.DB.PutItem(ctx, "users", "u2", json.RawMessage(`{not json`))
	testutil.AssertAppErrorCode(t, err, apperrors.ErrCodeValidation)
}

func TestFunc_Invoke(t *testing.T) {
	exec := &fakeExecutor{result: &ExecResult{Stdout: "hi\n"}}
	svc := newTestServices(t, Options{Executor: exec})
	ctx := context.Background()

	require.NoError(t, svc.Func.CreateFunction(ctx, "hello", "main.py", "print('hi')"))
	require.NoError(t, svc.Func.CreateFunction(ctx, "greet", "index.handler", "console.log('hi')"))

	names, err := svc.Func.ListFunctions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"greet", "hello"}, names)

	resp, err := svc.Func.Invoke(ctx, "hello", json.RawMessage(`{"a": 1}`))
	require.NoError(t, err)
	assert.Equal(t, "Executed", resp.Status)
	assert.Equal(t, "hi\n", resp.Stdout)
	require.NotNil(t, resp.ExitCode)
	assert.Equal(t, 0, *resp.ExitCode)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, "python3", exec.calls[0][0])
	assert.True(t, strings.HasSuffix(exec.calls[0][1], "main.py"))
	assert.Equal(t, `{"a":1}`, exec.calls[0][2])

	_, err = svc.Func.Invoke(ctx, "greet", nil)
	require.NoError(t, err)
	assert.Equal(t, "node", exec.calls[1][0])
	assert.Equal(t, "{}", exec.calls[1][2])
}

func TestFunc_InvokeFallsBackToMock(t *testing.T) {
	exec := &fakeExecutor{err: assert.AnError}
	svc := newTestServices(t, Options{Executor: exec})
	ctx := context.Background()

	require.NoError(t, svc.Func.CreateFunction(ctx, "hello", "main.py", "print('hi')"))
	resp, err := svc.Func.Invoke(ctx, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "MockExecuted", resp.Status)
	assert.Equal(t, "Hello from ZeroFunc (Mock)", resp.Result)
	assert.Contains(t, resp.Warning, "Falling back to mock")
	assert.Nil(t, resp.ExitCode)
}

func TestFunc_InvokeErrors(t *testing.T) {
	exec := &fakeExecutor{err: context.DeadlineExceeded}
	svc := newTestServices(t, Options{Executor: exec, FunctionTimeout: time.Second})
	ctx := context.Background()

	_, err := svc.Func.Invoke(ctx, "missing", nil)
	testutil.AssertAppErrorStatus(t, err, http.StatusNotFound)

	require.NoError(t, svc.Func.CreateFunction(ctx, "slow", "main.py", "while True: pass"))
	_, err = svc.Func.Invoke(ctx, "slow", json.RawMessage(`{bad`))
	testutil.AssertAppErrorCode(t, err, apperrors.ErrCodeValidation)

	_, err = svc.Func.Invoke(ctx, "slow", nil)
	testutil.AssertAppErrorCode(t, err, apperrors.ErrCodeDriverError)
	assert.Contains(t, err.Error(), "timed out")
}

func TestQueue_Lifecycle(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestServices(t, Options{Now: clock.Now, QueueVisibilityTimeout: 30 * time.Second})
	ctx := context.Background()

	url, err := svc.Queue.CreateQueue(ctx, "jobs")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v1/queue/queues/jobs", url)

	again, err := svc.Queue.CreateQueue(ctx, "jobs")
	require.NoError(t, err)
	assert.Equal(t, url, again)

	urls, err := svc.Queue.ListQueues(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{url}, urls)

	firstID, err := svc.Queue.SendMessage(ctx, "jobs", "first")
	require.NoError(t, err)
	clock.t = clock.t.Add(time.Millisecond)
	_, err = svc.Queue.SendMessage(ctx, "jobs", "second")
	require.NoError(t, err)

	msg, err := svc.Queue.ReceiveMessage(ctx, "jobs")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, firstID, msg.MessageID)
	assert.Equal(t, "first", msg.Body)
	assert.NotEmpty(t, msg.ReceiptHandle)

	// first is hidden, so second comes next
	next, err := svc.Queue.ReceiveMessage(ctx, "jobs")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "second", next.Body)

	empty, err := svc.Queue.ReceiveMessage(ctx, "jobs")
	require.NoError(t, err)
	assert.Nil(t, empty)

	require.NoError(t, svc.Queue.DeleteMessage(ctx, "jobs", next.ReceiptHandle))
	err = svc.Queue.DeleteMessage(ctx, "jobs", next.ReceiptHandle)
	testutil.AssertAppErrorStatus(t, err, http.StatusNotFound)

	// after the visibility timeout the undeleted message reappears
	clock.t = clock.t.Add(31 * time.Second)
	again2, err := svc.Queue.ReceiveMessage(ctx, "jobs")
	require.NoError(t, err)
	require.NotNil(t, again2)
	assert.Equal(t, firstID, again2.MessageID)
	assert.NotEqual(t, msg.ReceiptHandle, again2.ReceiptHandle)

	err = svc.Queue.DeleteMessage(ctx, "jobs", msg.ReceiptHandle)
	testutil.AssertAppErrorStatus(t, err, http.StatusNotFound)
	require.NoError(t, svc.Queue.DeleteMessage(ctx, "jobs", again2.ReceiptHandle))
}

func TestQueue_UnknownQueue(t *testing.T) {
	svc := newTestServices(t, Options{})
	ctx := context.Background()

	_, err := svc.Queue.SendMessage(ctx, "ghost", "x")
	testutil.AssertAppErrorStatus(t, err, http.StatusNotFound)

	_, err = svc.Queue.ReceiveMessage(ctx, "ghost")
	testutil.AssertAppErrorStatus(t, err, http.StatusNotFound)

	_, err = svc.Queue.CreateQueue(ctx, "bad/name")
	testutil.AssertAppErrorCode(t, err, apperrors.ErrCodeValidation)
}

func TestIAM_Principals(t *testing.T) {
	svc := newTestServices(t, Options{})
	ctx := context.Background()

	arn, err := svc.IAM.CreatePrincipal(ctx, KindUser, "alice")
	require.NoError(t, err)
	assert.Equal(t, "arn:zero:iam::000000:user/alice", arn)

	arn, err = svc.IAM.CreatePrincipal(ctx, KindRole, "admin")
	require.NoError(t, err)
	assert.Equal(t, "arn:zero:iam::000000:role/admin", arn)

	arn, err = svc.IAM.CreatePrincipal(ctx, KindGroup, "devs")
	require.NoError(t, err)
	assert.Equal(t, "arn:zero:iam::000000:group/devs", arn)

	users, err := svc.IAM.ListPrincipals(ctx, KindUser)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].UserName)
	assert.Equal(t, "{}", users[0].Policy)

	roles, err := svc.IAM.ListPrincipals(ctx, KindRole)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "admin", roles[0].RoleName)
	assert.Empty(t, roles[0].UserName)

	_, err = svc.IAM.ListPrincipals(ctx, "robot")
	testutil.AssertAppErrorStatus(t, err, http.StatusBadRequest)
}

func TestIAM_AttachPolicy(t *testing.T) {
	svc := newTestServices(t, Options{})
	ctx := context.Background()

	_, err := svc.IAM.CreatePrincipal(ctx, KindUser, "alice")
	require.NoError(t, err)

	policy := testutil.NewPolicyBuilder().Allow("*", "*").Build()
	require.NoError(t, svc.IAM.AttachUserPolicy(ctx, "alice", policy))

	quoted, err := json.Marshal(string(policy))
	require.NoError(t, err)
	require.NoError(t, svc.IAM.AttachUserPolicy(ctx, "alice", quoted))

	users, err := svc.IAM.ListPrincipals(ctx, KindUser)
	require.NoError(t, err)
	assert.JSONEq(t, string(policy), users[0].Policy)

	err = svc.IAM.AttachUserPolicy(ctx, "bob", policy)
	testutil.AssertAppErrorStatus(t, err, http.StatusNotFound)

	err = svc.IAM.AttachUserPolicy(ctx, "alice", json.RawMessage(`"{not json"`))
	testutil.AssertAppErrorCode(t, err, apperrors.ErrCodeValidation)

	// recreating keeps the attached policy
	_, err = svc.IAM.CreatePrincipal(ctx, KindUser, "alice")
	require.NoError(t, err)
	users, err = svc.IAM.ListPrincipals(ctx, KindUser)
	require.NoError(t, err)
	assert.JSONEq(t, string(policy), users[0].Policy)
}

func TestIAM_CheckPermission(t *testing.T) {
	svc := newTestServices(t, Options{})
	ctx := context.Background()

	_, err := svc.IAM.CreatePrincipal(ctx, KindUser, "alice")
	require.NoError(t, err)

	policy := testutil.NewPolicyBuilder().
		Allow([]string{"s3:GetObject", "s3:PutObject"}, "arn:zero:s3:::photos/*").
		Allow("sqs:*", "*").
		Deny("sqs:DeleteQueue", "*").
		Build()
	require.NoError(t, svc.IAM.AttachUserPolicy(ctx, "alice", policy))

	tests := []struct {
		name     string
		user     string
		action   string
		resource string
		want     bool
	}{
		{"listed action on matching resource", "alice", "s3:GetObject", "arn:zero:s3:::photos/cat.png", true},
		{"listed action on other resource", "alice", "s3:GetObject", "arn:zero:s3:::secrets/key", false},
		{"unlisted action", "alice", "s3:DeleteObject", "arn:zero:s3:::photos/cat.png", false},
		{"action wildcard", "alice", "sqs:SendMessage", "anything", true},
		{"explicit deny wins", "alice", "sqs:DeleteQueue", "anything", false},
		{"unknown user", "bob", "s3:GetObject", "arn:zero:s3:::photos/cat.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, checkErr := svc.IAM.CheckPermission(ctx, tt.user, tt.action, tt.resource)
			require.NoError(t, checkErr)
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestIAM_CheckPermissionWithoutPolicy(t *testing.T) {
	svc := newTestServices(t, Options{})
	ctx := context.Background()

	_, err := svc.IAM.CreatePrincipal(ctx, KindUser, "carol")
	require.NoError(t, err)

	allowed, err := svc.IAM.CheckPermission(ctx, "carol", "s3:GetObject", "*")
	require.NoError(t, err)
	assert.False(t, allowed)

	single := json.RawMessage(`{"Statement": {"Effect": "Allow", "Action": "*", "Resource": "*"}}`)
	require.NoError(t, svc.IAM.AttachUserPolicy(ctx, "carol", single))
	allowed, err = svc.IAM.CheckPermission(ctx, "carol", "s3:GetObject", "bucket")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLB_Lifecycle(t *testing.T) {
	svc := newTestServices(t, Options{})
	ctx := context.Background()

	lb, err := svc.LB.CreateLoadBalancer(ctx, "web", "")
	require.NoError(t, err)
	assert.Equal(t, "web.lb.zero.local", lb.DNSName)
	assert.Equal(t, "active", lb.Status.Code)
	assert.Equal(t, "application", lb.Type)

	groupArn, err := svc.LB.CreateTargetGroup(ctx, "web-tg", 0, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(groupArn, "arn:zero:elasticloadbalancing::000000:targetgroup/web-tg/"))

	require.NoError(t, svc.LB.RegisterTarget(ctx, groupArn, "i-123", 0))

	listenerArn, err := svc.LB.CreateListener(ctx, "web", 443, "HTTPS", groupArn)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(listenerArn, "arn:zero:elasticloadbalancing::000000:listener/web/"))

	lbs, err := svc.LB.ListLoadBalancers(ctx)
	require.NoError(t, err)
	require.Len(t, lbs, 1)
	assert.Equal(t, *lb, lbs[0])
}

func TestLB_Errors(t *testing.T) {
	svc := newTestServices(t, Options{})
	ctx := context.Background()

	err := svc.LB.RegisterTarget(ctx, "not-an-arn", "i-1", 80)
	testutil.AssertAppErrorCode(t, err, apperrors.ErrCodeValidation)

	err = svc.LB.RegisterTarget(ctx, ELBArn("targetgroup/ghost/1"), "i-1", 80)
	testutil.AssertAppErrorStatus(t, err, http.StatusNotFound)

	_, err = svc.LB.CreateListener(ctx, "ghost", 80, "", ELBArn("targetgroup/ghost/1"))
	testutil.AssertAppErrorStatus(t, err, http.StatusNotFound)
}

func TestEKS(t *testing.T) {
	svc := newTestServices(t, Options{})
	ctx := context.Background()

	_, err := svc.EKS.DescribeCluster(ctx, "prod")
	testutil.AssertAppErrorStatus(t, err, http.StatusNotFound)

	body, err := svc.EKS.Handle(ctx, ActionCreateCluster, apiEKSRequest("prod", ""))
	require.NoError(t, err)
	cluster := body.(*api.ClusterResponse)
	assert.Equal(t, "prod", cluster.Cluster.Name)
	assert.Equal(t, "ACTIVE", cluster.Cluster.Status)
	assert.Equal(t, "1.27", cluster.Cluster.Version)
	assert.Equal(t, "arn:zero:eks:local:000000:cluster/prod", cluster.Cluster.Arn)

	body, err = svc.EKS.Handle(ctx, ActionCreateNodegroup, apiEKSRequest("prod", "workers"))
	require.NoError(t, err)
	ng := body.(*api.NodegroupResponse)
	assert.Equal(t, "workers", ng.Nodegroup.NodegroupName)
	assert.Equal(t, "prod", ng.Nodegroup.ClusterName)

	_, err = svc.EKS.Handle(ctx, ActionDescribeNodegroup, apiEKSRequest("prod", "workers"))
	require.NoError(t, err)

	_, err = svc.EKS.Handle(ctx, ActionDeleteCluster, apiEKSRequest("prod", ""))
	require.NoError(t, err)

	_, err = svc.EKS.Handle(ctx, ActionDescribeNodegroup, apiEKSRequest("prod", "workers"))
	testutil.AssertAppErrorStatus(t, err, http.StatusNotFound)

	_, err = svc.EKS.Handle(ctx, "Explode", apiEKSRequest("", ""))
	testutil.AssertAppErrorStatus(t, err, http.StatusBadRequest)
}

func TestParseARN(t *testing.T) {
	parsed, ok := ParseARN(IAMArn(KindUser, "alice"), "iam")
	assert.True(t, ok)
	assert.Equal(t, "user/alice", parsed.Resource)

	_, ok = ParseARN("arn:aws:iam::123:user/alice", "iam")
	assert.False(t, ok)

	_, ok = ParseARN("garbage", "iam")
	assert.False(t, ok)
}

func apiEKSRequest(name, nodegroup string) api.EKSRequest {
	return api.EKSRequest{Name: name, NodegroupName: nodegroup}
}
