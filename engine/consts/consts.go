package consts

import "time"

// Tunable Options
const (
	// GAME_SERVICE_PACKET_QUEUE_SIZE is the max request queue length for game service
	GAME_SERVICE_PACKET_QUEUE_SIZE = 10000
	// GAME_SERVICE_TICK_INTERVAL is the tick interval to tick timers in game service
	GAME_SERVICE_TICK_INTERVAL = time.Millisecond * 10 // server tick interval => affect timer resolution
	// GAME_SERVICE_LOAD_LOG_INTERVAL is the interval of logging process load
	GAME_SERVICE_LOAD_LOG_INTERVAL = time.Minute

	// MIN_REPEAT_TIMER_INTERVAL is the minimal interval for repeat timers
	MIN_REPEAT_TIMER_INTERVAL = time.Millisecond * 10

	// CLIENT_PROXY_SEND_QUEUE_SIZE is the number of field updates buffered per websocket client
	CLIENT_PROXY_SEND_QUEUE_SIZE = 1024
	// CLIENT_PROXY_WRITE_TIMEOUT is the deadline for writing one message to a client
	CLIENT_PROXY_WRITE_TIMEOUT = time.Second * 10
	// CLIENT_PROXY_MAX_MESSAGE_SIZE is the largest request a client may send
	CLIENT_PROXY_MAX_MESSAGE_SIZE = 64 * 1024

	// KVDB_OP_TIMEOUT_WARN is the threshold to warn about slow kvdb operations
	KVDB_OP_TIMEOUT_WARN = time.Second
	// LEVEL_LOAD_TIMEOUT_WARN is the threshold to warn about slow level loads
	LEVEL_LOAD_TIMEOUT_WARN = time.Millisecond * 100
	// RESOLVE_ATTACK_TIMEOUT_WARN is the threshold to warn about slow attack resolution
	RESOLVE_ATTACK_TIMEOUT_WARN = time.Millisecond * 5

	// OPMON_DUMP_INTERVAL is the interval to print opmon infos to output
	OPMON_DUMP_INTERVAL = 0
)

// Debug Options
const (
	// DEBUG_CLIENTS prints clients operation debug logs
	DEBUG_CLIENTS = false
	// DEBUG_SPACES prints space operation debug logs
	DEBUG_SPACES = false
	// DEBUG_ATTACKS prints attack state machine debug logs
	DEBUG_ATTACKS = false
	// DEBUG_ZONES prints battle zone debug logs
	DEBUG_ZONES = true
)

//  System level configurations
const (
	// DEBUG_MODE = true turns on debug mode
	DEBUG_MODE = false
)
