package chat

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout delivers payloads to many clients from a single delivery
// goroutine, so broadcasts drain in the order they were submitted and a
// recipient never sees two envelopes from one sender swapped. Per-client
// enqueue is non-blocking, so one slow client never stalls the loop (it
// gets killed by Enqueue instead).
type Fanout struct {
	jobs chan fanoutJob
}

func NewFanout(queue int) *Fanout {
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	go func() {
		for job := range f.jobs {
			for _, c := range job.conns {
				c.Enqueue(job.payload)
			}
		}
	}()
	return f
}

func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: payload}
}
