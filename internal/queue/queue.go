// ABOUTME: Dependency-ordered queue of named sync operations
// ABOUTME: Independent operations run concurrently; cancellation stops scheduling

package queue

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Operation is one unit of sync work. It runs after every operation it
// depends on has completed successfully.
type Operation struct {
	Name      string
	DependsOn []string
	Run       func(ctx context.Context) error
}

// Queue executes a set of operations respecting their dependencies.
type Queue struct {
	mu  sync.Mutex
	ops []Operation
}

// New constructs an empty queue.
func New() *Queue {
	return &Queue{}
}

// Add appends an operation. Dependencies may name operations added
// later; validation happens at Run time.
func (q *Queue) Add(op Operation) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = append(q.ops, op)
}

// Len returns the number of queued operations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Run executes the queued operations. Operations whose dependencies
// have all succeeded run concurrently. A failed operation skips its
// dependents but lets independent operations finish. Cancellation
// stops further scheduling; in-flight operations observe it through
// their context. The queue is drained after Run returns.
func (q *Queue) Run(ctx context.Context) error {
	q.mu.Lock()
	ops := q.ops
	q.ops = nil
	q.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}

	byName := make(map[string]*node, len(ops))
	for i := range ops {
		op := &ops[i]
		if op.Name == "" {
			return fmt.Errorf("operation with empty name")
		}
		if _, dup := byName[op.Name]; dup {
			return fmt.Errorf("duplicate operation %q", op.Name)
		}
		byName[op.Name] = &node{op: op, done: make(chan struct{})}
	}
	for _, n := range byName {
		for _, dep := range n.op.DependsOn {
			d, ok := byName[dep]
			if !ok {
				return fmt.Errorf("operation %q depends on unknown %q", n.op.Name, dep)
			}
			n.deps = append(n.deps, d)
		}
	}
	if err := checkCycles(byName); err != nil {
		return err
	}

	var g errgroup.Group
	for _, n := range byName {
		g.Go(func() error {
			defer close(n.done)
			for _, d := range n.deps {
				select {
				case <-ctx.Done():
					n.skipped = true
					return ctx.Err()
				case <-d.done:
					if d.err != nil || d.skipped {
						n.skipped = true
						return nil
					}
				}
			}
			if err := ctx.Err(); err != nil {
				n.skipped = true
				return err
			}
			n.err = n.op.Run(ctx)
			if n.err != nil {
				return fmt.Errorf("%s: %w", n.op.Name, n.err)
			}
			return nil
		})
	}
	return g.Wait()
}

type node struct {
	op      *Operation
	deps    []*node
	done    chan struct{}
	err     error
	skipped bool
}

func checkCycles(byName map[string]*node) error {
	const (
		unseen = iota
		visiting
		finished
	)
	state := make(map[*node]int, len(byName))
	var visit func(n *node) error
	visit = func(n *node) error {
		switch state[n] {
		case visiting:
			return fmt.Errorf("dependency cycle through %q", n.op.Name)
		case finished:
			return nil
		}
		state[n] = visiting
		for _, d := range n.deps {
			if err := visit(d); err != nil {
				return err
			}
		}
		state[n] = finished
		return nil
	}
	for _, n := range byName {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}
