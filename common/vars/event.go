package vars

import (
	"club-registration/model"
	"sync/atomic"
	"unsafe"
)

// eventDataPtr holds a pointer to the current slice of event data.
// This approach allows for lock-free reads with atomic updates.
var eventDataPtr unsafe.Pointer

// GetEvents returns the current event catalogue snapshot.
// This operation is lock-free and safe for concurrent access.
func GetEvents() []model.EventFeeInfo {
	ptr := atomic.LoadPointer(&eventDataPtr)
	if ptr == nil {
		return nil
	}
	return *(*[]model.EventFeeInfo)(ptr)
}

// SetEvents atomically replaces the event catalogue snapshot.
// It creates a copy of the input data to ensure consistency.
func SetEvents(events []model.EventFeeInfo) {
	var ptr unsafe.Pointer

	if len(events) > 0 {
		eventsCopy := make([]model.EventFeeInfo, len(events))
		copy(eventsCopy, events)
		ptr = unsafe.Pointer(&eventsCopy)
	}

	atomic.StorePointer(&eventDataPtr, ptr)
}

func init() {
	atomic.StorePointer(&eventDataPtr, nil)
}
