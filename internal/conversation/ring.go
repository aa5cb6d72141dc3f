package conversation

// ring is a fixed-capacity circular buffer of completed conversations with
// strict oldest-first eviction. Not safe for concurrent use; the Tracker
// holds the lock.
type ring struct {
	buf   []*Conversation
	head  int // index of the most recently added entry
	count int
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &ring{buf: make([]*Conversation, capacity), head: -1}
}

// add appends c, evicting the oldest entry when full. Returns the evicted
// conversation, if any.
func (r *ring) add(c *Conversation) *Conversation {
	r.head = (r.head + 1) % len(r.buf)
	evicted := r.buf[r.head]
	r.buf[r.head] = c
	if r.count < len(r.buf) {
		r.count++
		return nil
	}
	return evicted
}

// recent returns up to limit entries, most recent first. limit <= 0 means
// all.
func (r *ring) recent(limit int) []*Conversation {
	n := r.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*Conversation, 0, n)
	for i := 0; i < n; i++ {
		idx := (r.head - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

// find returns the entry with the given call ID, or nil.
func (r *ring) find(callID string) *Conversation {
	for i := 0; i < r.count; i++ {
		idx := (r.head - i + len(r.buf)) % len(r.buf)
		if r.buf[idx].CallID == callID {
			return r.buf[idx]
		}
	}
	return nil
}

func (r *ring) len() int { return r.count }
