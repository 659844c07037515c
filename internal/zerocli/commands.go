package zerocli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"
)

// Command is one typed CLI action, such as WorkloadUp or QueueSend.
type Command interface {
	// Name is the command path as typed, e.g. "workload up".
	Name() string
}

// requestCommand is a Command answered by a single API request.
type requestCommand interface {
	Command
	request() (*api.Request, error)
	// progress is printed before the request is sent. Empty means silent.
	progress() string
}

func escape(segment string) string {
	return url.PathEscape(segment)
}

// Workloads

// WorkloadUp starts a workload.
type WorkloadUp struct {
	ID    string
	Image string
}

func (WorkloadUp) Name() string { return "workload up" }

func (c WorkloadUp) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/workloads", api.CreateWorkloadRequest{ID: c.ID, Image: c.Image})
}

func (c WorkloadUp) progress() string {
	return fmt.Sprintf("Starting workload %s with image %s...", c.ID, c.Image)
}

// WorkloadDown stops and removes a workload.
type WorkloadDown struct {
	ID string
}

func (WorkloadDown) Name() string { return "workload down" }

func (c WorkloadDown) request() (*api.Request, error) {
	return api.NewRequest(http.MethodDelete, "/v1/workloads", api.DeleteWorkloadRequest{ID: c.ID})
}

func (c WorkloadDown) progress() string { return fmt.Sprintf("Stopping workload %s...", c.ID) }

// WorkloadList lists workloads.
type WorkloadList struct{}

func (WorkloadList) Name() string { return "workload ls" }

func (WorkloadList) request() (*api.Request, error) {
	return api.NewRequest(http.MethodGet, "/v1/workloads", nil)
}

func (WorkloadList) progress() string { return "" }

// Volumes

// VolumeCreate provisions a volume.
type VolumeCreate struct {
	ID     string
	SizeGB int
}

func (VolumeCreate) Name() string { return "volume create" }

func (c VolumeCreate) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/volumes", api.CreateVolumeRequest{ID: c.ID, SizeGB: c.SizeGB})
}

func (c VolumeCreate) progress() string {
	return fmt.Sprintf("Provisioning volume %s (%d GB)...", c.ID, c.SizeGB)
}

// VolumeList lists volumes.
type VolumeList struct{}

func (VolumeList) Name() string { return "volume ls" }

func (VolumeList) request() (*api.Request, error) {
	return api.NewRequest(http.MethodGet, "/v1/volumes", nil)
}

func (VolumeList) progress() string { return "" }

// Nodes

// NodeList lists registered compute nodes.
type NodeList struct{}

func (NodeList) Name() string { return "node list" }

func (NodeList) request() (*api.Request, error) {
	return api.NewRequest(http.MethodGet, "/v1/nodes", nil)
}

func (NodeList) progress() string { return "Local compute nodes:" }

// Networks

// NetworkCreate creates a virtual network.
type NetworkCreate struct {
	ID   string
	CIDR string
}

func (NetworkCreate) Name() string { return "network create" }

func (c NetworkCreate) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/networks", api.CreateNetworkRequest{ID: c.ID, CIDR: c.CIDR})
}

func (c NetworkCreate) progress() string {
	return fmt.Sprintf("Creating network %s with CIDR %s...", c.ID, c.CIDR)
}

// NetworkList lists networks.
type NetworkList struct{}

func (NetworkList) Name() string { return "network ls" }

func (NetworkList) request() (*api.Request, error) {
	return api.NewRequest(http.MethodGet, "/v1/networks", nil)
}

func (NetworkList) progress() string { return "" }

// Store

// StoreCreate creates a bucket.
type StoreCreate struct {
	Bucket string
}

func (StoreCreate) Name() string { return "store create" }

func (c StoreCreate) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/store/buckets", api.CreateBucketRequest{Name: c.Bucket})
}

func (c StoreCreate) progress() string { return fmt.Sprintf("Creating bucket %s...", c.Bucket) }

// StoreList lists buckets.
type StoreList struct{}

func (StoreList) Name() string { return "store ls" }

func (StoreList) request() (*api.Request, error) {
	return api.NewRequest(http.MethodGet, "/v1/store/buckets", nil)
}

func (StoreList) progress() string { return "" }

// DB

// DBCreate creates a table.
type DBCreate struct {
	Table string
	PK    string
}

func (DBCreate) Name() string { return "db create" }

func (c DBCreate) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/db/tables", api.CreateTableRequest{Name: c.Table, PK: c.PK})
}

func (c DBCreate) progress() string {
	return fmt.Sprintf("Creating table %s (PK: %s)...", c.Table, c.PK)
}

// DBPut stores an item.
type DBPut struct {
	Table   string
	PKValue string
	Item    string
}

func (DBPut) Name() string { return "db put" }

func (c DBPut) request() (*api.Request, error) {
	if !json.Valid([]byte(c.Item)) {
		return nil, apperrors.ErrValidation("--item must be valid JSON", nil)
	}
	return api.NewRequest(http.MethodPost, "/v1/db/tables/"+escape(c.Table)+"/items",
		api.PutItemRequest{PK: c.PKValue, Item: json.RawMessage(c.Item)})
}

func (c DBPut) progress() string {
	return fmt.Sprintf("Storing item %s in table %s...", c.PKValue, c.Table)
}

// DBList lists tables.
type DBList struct{}

func (DBList) Name() string { return "db ls" }

func (DBList) request() (*api.Request, error) {
	return api.NewRequest(http.MethodGet, "/v1/db/tables", nil)
}

func (DBList) progress() string { return "" }

// Functions

// FuncDeploy deploys a function. Code is a file path or inline source.
type FuncDeploy struct {
	Function string
	Code     string
	Handler  string
	Watch    bool

	// fromFile makes Code a file path only; set while watching.
	fromFile bool
}

func (FuncDeploy) Name() string { return "func deploy" }

// codeFile returns the path behind Code when it names a regular file.
func (c FuncDeploy) codeFile() (string, bool) {
	info, err := os.Stat(c.Code)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return c.Code, true
}

func (c FuncDeploy) request() (*api.Request, error) {
	code := c.Code
	path, ok := c.codeFile()
	if !ok && c.fromFile {
		return nil, fmt.Errorf("function code %s is not a regular file", c.Code)
	}
	if ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read function code: %w", err)
		}
		code = string(data)
	}
	return api.NewRequest(http.MethodPost, "/v1/func/functions",
		api.CreateFunctionRequest{Name: c.Function, Handler: c.Handler, Code: code})
}

func (c FuncDeploy) progress() string { return fmt.Sprintf("Deploying function %s...", c.Function) }

// FuncInvoke invokes a function with a JSON payload.
type FuncInvoke struct {
	Function string
	Payload  string
}

func (FuncInvoke) Name() string { return "func invoke" }

func (c FuncInvoke) request() (*api.Request, error) {
	payload := c.Payload
	if payload == "" {
		payload = "{}"
	}
	return &api.Request{
		Method:  http.MethodPost,
		Path:    "/v1/func/functions/" + escape(c.Function) + "/invocations",
		Headers: map[string]string{constants.ContentTypeHeader: constants.ContentTypeJSON},
		Body:    []byte(payload),
	}, nil
}

func (c FuncInvoke) progress() string { return fmt.Sprintf("Invoking function %s...", c.Function) }

// FuncList lists functions.
type FuncList struct{}

func (FuncList) Name() string { return "func ls" }

func (FuncList) request() (*api.Request, error) {
	return api.NewRequest(http.MethodGet, "/v1/func/functions", nil)
}

func (FuncList) progress() string { return "" }

// Queues

// QueueCreate creates a queue.
type QueueCreate struct {
	Queue string
}

func (QueueCreate) Name() string { return "queue create" }

func (c QueueCreate) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/queue/queues", api.CreateQueueRequest{Name: c.Queue})
}

func (c QueueCreate) progress() string { return fmt.Sprintf("Creating queue %s...", c.Queue) }

// QueueSend sends a message.
type QueueSend struct {
	Queue string
	Body  string
}

func (QueueSend) Name() string { return "queue send" }

func (c QueueSend) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/queue/queues/"+escape(c.Queue)+"/messages",
		api.SendMessageRequest{Body: c.Body})
}

func (c QueueSend) progress() string { return fmt.Sprintf("Sending message to %s...", c.Queue) }

// QueueReceive receives the oldest visible message.
type QueueReceive struct {
	Queue string
}

func (QueueReceive) Name() string { return "queue receive" }

func (c QueueReceive) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/queue/queues/"+escape(c.Queue)+"/receive", nil)
}

func (QueueReceive) progress() string { return "" }

// QueueDelete deletes a received message by receipt handle.
type QueueDelete struct {
	Queue  string
	Handle string
}

func (QueueDelete) Name() string { return "queue delete" }

func (c QueueDelete) request() (*api.Request, error) {
	return api.NewRequest(http.MethodDelete, "/v1/queue/queues/"+escape(c.Queue)+"/messages",
		api.DeleteMessageRequest{ReceiptHandle: c.Handle})
}

func (c QueueDelete) progress() string { return fmt.Sprintf("Deleting message from %s...", c.Queue) }

// QueueList lists queue URLs.
type QueueList struct{}

func (QueueList) Name() string { return "queue ls" }

func (QueueList) request() (*api.Request, error) {
	return api.NewRequest(http.MethodGet, "/v1/queue/queues", nil)
}

func (QueueList) progress() string { return "" }
