package commbus

import "errors"

// Error kinds of the registry/topic/executor graph. ErrTypeMismatch,
// ErrTopicClosed and ErrNotStamped are returned by topic lookup, publish
// and time-ordered drain; ErrShutdown is returned by the executors' ready
// wait. ErrQueueOverflow and ErrReorderWindowExceeded are not returned by
// any operation: queue overflow is logged and counted, and the reorder
// buffer has no window threshold. The package has no checks for double
// registration or teardown-ordering violations.
var (
	ErrTypeMismatch          = errors.New("commbus: topic is already bound to a different type")
	ErrTopicClosed           = errors.New("commbus: topic is closed")
	ErrNotStamped            = errors.New("commbus: message type does not carry the stamped capability")
	ErrQueueOverflow         = errors.New("commbus: subscriber queue overflow, oldest entry dropped")
	ErrReorderWindowExceeded = errors.New("commbus: reorder window exceeded operator threshold")
	ErrShutdown              = errors.New("commbus: executor stopped while a consumer was waiting")
)
