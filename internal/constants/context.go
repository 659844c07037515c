package constants

// RequestIDLogField is the field name used for request ID in log entries
const RequestIDLogField = "requestID"
