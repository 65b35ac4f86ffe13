package session

import "sync"

// PacketQueue is a session's outbound buffer of already-encoded packet
// bytes. Enqueue appends; Dequeue atomically takes the whole buffer and
// clears it, so no byte enqueued concurrently is dropped or duplicated.
type PacketQueue struct {
	mu  sync.Mutex
	buf []byte
}

// NewPacketQueue creates an empty queue.
func NewPacketQueue() *PacketQueue {
	return &PacketQueue{buf: make([]byte, 0, 512)}
}

// Enqueue appends encoded packet bytes to the queue.
func (q *PacketQueue) Enqueue(b []byte) {
	if len(b) == 0 {
		return
	}
	q.mu.Lock()
	q.buf = append(q.buf, b...)
	q.mu.Unlock()
}

// Dequeue returns all queued bytes and clears the queue in one step.
func (q *PacketQueue) Dequeue() []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return nil
	}
	out := q.buf
	q.buf = make([]byte, 0, 512)
	return out
}

// Len returns the number of queued bytes.
func (q *PacketQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
