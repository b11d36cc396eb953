// Package processor turns a question table into the final video. It owns
// the per-row state machine, pre-flight checks and the conversion of typed
// errors into the strings returned by the create_mcq_video tool. Transports
// (MCP, HTTP, watch folder, CLI) only adapt to the Tool interface.
package processor
