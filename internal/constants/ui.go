package constants

// HeaderSeparatorLength is the length of the header separator line.
const HeaderSeparatorLength = 50

// EventChannelBuffer is the per-subscriber buffer of the event hub.
const EventChannelBuffer = 64
