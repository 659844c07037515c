package constants

import "time"

// DefaultCLITimeout is the default --timeout applied to one CLI invocation.
const DefaultCLITimeout = 10 * time.Minute

// DefaultFunctionTimeout bounds a single function invocation.
const DefaultFunctionTimeout = 30 * time.Second

// DefaultQueueVisibilityTimeout is how long a received message stays hidden.
const DefaultQueueVisibilityTimeout = 30 * time.Second

// DockerPingTimeout bounds the reachability probe used by engine auto-detection.
const DockerPingTimeout = 2 * time.Second

// TestContextTimeout is the timeout for test contexts.
const TestContextTimeout = 5 * time.Second

// EventWriteTimeout bounds a single websocket write to an event subscriber.
const EventWriteTimeout = 10 * time.Second

// FuncWatchDebounce coalesces bursts of file events into one redeploy.
const FuncWatchDebounce = 100 * time.Millisecond
