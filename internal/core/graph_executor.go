package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mark1russell7/ecosys/internal/types"
)

// NodeProcessor runs the workflow's work for one node. logf appends to the
// node's captured log. A processor owns its node's working directory
// exclusively, so concurrent processors need no filesystem synchronization.
type NodeProcessor func(ctx context.Context, node *types.DAGNode, logf func(format string, args ...any)) error

// GraphExecutor runs a per-node processor across a leveled plan with bounded
// concurrency. Levels are barriers: every edge A→B has B's processor settled
// before A's starts (given fail-fast; without it a dependent may start after
// its dependency failed — documented continue-on-error behavior).
type GraphExecutor struct {
	ui UICallback
}

// NewGraphExecutor creates a GraphExecutor.
func NewGraphExecutor(ui UICallback) *GraphExecutor {
	if ui == nil {
		ui = &SilentUICallback{}
	}
	return &GraphExecutor{ui: ui}
}

// Execute processes levels in ascending order. Within a level, up to
// opts.Concurrency processors are in flight; a level completes when all its
// processors settle. Fail-fast prevents further starts but never interrupts
// in-flight processors — they run to completion to avoid partial filesystem
// state. Nodes never started receive a synthetic skipped result, so the
// result mapping always holds exactly one entry per node.
func (e *GraphExecutor) Execute(ctx context.Context, graph *types.LeveledGraph, processor NodeProcessor, opts types.ExecuteOptions) *types.GraphResult {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	start := time.Now()
	result := &types.GraphResult{
		Success: true,
		Results: make(map[string]*types.NodeResult, len(graph.Nodes)),
	}
	var resultMu sync.Mutex
	var failed atomic.Bool

	sem := semaphore.NewWeighted(int64(concurrency))

	for _, level := range graph.Levels {
		var wg sync.WaitGroup
		for _, node := range level {
			if opts.FailFast && failed.Load() {
				resultMu.Lock()
				result.Results[node.Name] = skippedResult(node)
				resultMu.Unlock()
				continue
			}

			// The semaphore bounds in-flight processors; acquisition happens
			// before the goroutine starts so the fail-fast check above sees
			// an up-to-date failure flag for every not-yet-started node.
			if err := sem.Acquire(ctx, 1); err != nil {
				resultMu.Lock()
				result.Results[node.Name] = skippedResult(node)
				resultMu.Unlock()
				failed.Store(true)
				continue
			}
			if opts.FailFast && failed.Load() {
				sem.Release(1)
				resultMu.Lock()
				result.Results[node.Name] = skippedResult(node)
				resultMu.Unlock()
				continue
			}

			wg.Add(1)
			go func(node *types.DAGNode) {
				defer wg.Done()
				defer sem.Release(1)

				if opts.OnNodeStart != nil {
					opts.OnNodeStart(node)
				}

				nodeResult := &types.NodeResult{Node: node}
				logf := func(format string, args ...any) {
					nodeResult.Logs = append(nodeResult.Logs, fmt.Sprintf(format, args...))
				}

				nodeStart := time.Now()
				err := processor(ctx, node, logf)
				nodeResult.Duration = time.Since(nodeStart)
				nodeResult.Success = err == nil
				if err != nil {
					nodeResult.Error = err
					nodeResult.ErrorMsg = err.Error()
					failed.Store(true)
				}

				resultMu.Lock()
				result.Results[node.Name] = nodeResult
				resultMu.Unlock()

				if opts.OnNodeComplete != nil {
					opts.OnNodeComplete(nodeResult)
				}
			}(node)
		}
		// Level barrier: the next level starts only when every processor of
		// this one has settled.
		wg.Wait()
	}

	for _, r := range result.Results {
		if !r.Success {
			result.Success = false
			break
		}
	}
	result.Duration = time.Since(start)
	return result
}

func skippedResult(node *types.DAGNode) *types.NodeResult {
	return &types.NodeResult{
		Node:     node,
		Success:  false,
		Skipped:  true,
		ErrorMsg: "skipped: an earlier node failed",
	}
}
