package sync

import (
	"context"
)

type request struct {
	cmd   Command
	reply chan<- Outcome
}

type finished struct {
	res   Result
	reply chan<- Outcome
}

// Run makes the calling goroutine the owner and serves Submit and Do until
// ctx is done. Tasks run on their own goroutines and report back here. Run
// must be called at most once.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-o.requests:
			o.dispatch(ctx, o.Handle(req.cmd), req.reply)
		case f := <-o.results:
			o.dispatch(ctx, o.Apply(f.res), f.reply)
		}
	}
}

// dispatch starts step's tasks and answers reply unless a primary task
// still owes the final outcome.
func (o *Orchestrator) dispatch(ctx context.Context, step Step, reply chan<- Outcome) {
	pending := false
	for _, t := range step.Tasks {
		var r chan<- Outcome
		if t.primary {
			r = reply
			pending = true
		}
		go func(t Task, r chan<- Outcome) {
			res := t.Run(ctx)
			select {
			case o.results <- finished{res: res, reply: r}:
			case <-ctx.Done():
			}
		}(t, r)
	}
	if !pending && reply != nil {
		reply <- step.Outcome
	}
}

// Submit queues cmd without waiting for its outcome.
func (o *Orchestrator) Submit(ctx context.Context, cmd Command) error {
	select {
	case o.requests <- request{cmd: cmd}:
		return nil
	case <-o.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs cmd and waits for its final outcome, including any remote call
// it starts.
func (o *Orchestrator) Do(ctx context.Context, cmd Command) Outcome {
	reply := make(chan Outcome, 1)
	select {
	case o.requests <- request{cmd: cmd, reply: reply}:
	case <-o.done:
		return failed(ErrStopped)
	case <-ctx.Done():
		return failed(ctx.Err())
	}

	select {
	case out := <-reply:
		return out
	case <-o.done:
		return failed(ErrStopped)
	case <-ctx.Done():
		return failed(ctx.Err())
	}
}

// Drive runs cmd to completion on the calling goroutine, executing tasks
// and their follow-ups inline. The returned View reflects all of them. Use it
// when no Run loop exists, for one-shot CLI commands.
func (o *Orchestrator) Drive(ctx context.Context, cmd Command) Outcome {
	step := o.Handle(cmd)
	final := step.Outcome
	queue := step.Tasks
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		res := t.Run(ctx)
		next := o.Apply(res)
		if res.primary {
			final = next.Outcome
		}
		queue = append(queue, next.Tasks...)
	}
	final.View = o.View()
	return final
}
