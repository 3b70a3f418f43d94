// Package iqueue is an unbounded in-memory queue with channel endpoints.
// Send never blocks on a slow receiver; items wait in an internal list.
package iqueue

import (
	"container/list"
)

func New() *Queue {
	return &Queue{
		queue: list.New(),
		send:  make(chan interface{}, 1),
		recv:  make(chan interface{}, 1),
	}
}

type Queue struct {
	queue *list.List
	send  chan interface{}
	recv  chan interface{}
}

func (iq *Queue) Send(v interface{}) {
	iq.send <- v
}

func (iq *Queue) Receive() <-chan interface{} {
	return iq.recv
}

func (iq *Queue) Len() int {
	return iq.queue.Len()
}

func (iq *Queue) Close() {
	close(iq.send)
}

// Loop pumps items from the send side to the receive side, buffering in
// between. It exits and closes the receive side once the queue is closed
// and drained.
func (iq *Queue) Loop() {
	for {
		front := iq.queue.Front()
		if front != nil {
			select {
			case iq.recv <- front.Value:
				iq.queue.Remove(front)
			case value, ok := <-iq.send:
				if ok {
					iq.queue.PushBack(value)
				} else {
					iq.send = nil
				}
			}
		} else {
			if iq.send == nil {
				close(iq.recv)
				return
			}
			value, ok := <-iq.send
			if !ok {
				iq.send = nil
				continue
			}
			iq.queue.PushBack(value)
		}
	}
}
