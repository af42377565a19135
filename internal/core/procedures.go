package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark1russell7/ecosys/internal/agg"
)

// Procedures wires the external procedure contracts (fs.*, git.*, pnpm.*,
// shell.exec) into an aggregation registry. Aggregation-defined workflows
// reach the filesystem and processes only through these handlers, which is
// what makes test substitution possible for them. The Go services (install,
// new, rename, audit) also call the FileSystem, GitClient and ProcessRunner
// collaborators directly.
type Procedures struct {
	fs  FileSystem
	git GitClient
	run ProcessRunner
}

// NewProcedures creates the native procedure set over the given collaborators.
func NewProcedures(fs FileSystem, git GitClient, run ProcessRunner) *Procedures {
	return &Procedures{fs: fs, git: git, run: run}
}

// Register installs every native handler into reg.
func (p *Procedures) Register(reg *agg.Registry) error {
	handlers := map[string]agg.Handler{
		"fs.exists":    p.fsExists,
		"fs.mkdir":     p.fsMkdir,
		"fs.read.json": p.fsReadJSON,
		"fs.write":     p.fsWrite,
		"fs.rm":        p.fsRm,
		"fs.glob":      p.fsGlob,
		"fs.readdir":   p.fsReaddir,
		"fs.ensureDir": p.fsEnsureDir,
		"shell.exec":   p.shellExec,
		"pnpm.install": p.pnpmInstall,
		"pnpm.run":     p.pnpmRun,
		"git.status":   p.gitStatus,
		"git.add":      p.gitAdd,
		"git.commit":   p.gitCommit,
		"git.push":     p.gitPush,
		"git.pull":     p.gitPull,
		"git.clone":    p.gitClone,
		"git.checkout": p.gitCheckout,
		"git.branch":   p.gitBranch,
		"git.remote":   p.gitRemote,
		"git.init":     p.gitInit,
	}
	for path, h := range handlers {
		if err := reg.RegisterHandler(path, h, nil); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Input coercion helpers
// ---------------------------------------------------------------------------

func asMap(input any) map[string]any {
	if m, ok := input.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func inputString(input any, key string) string {
	s, _ := asMap(input)[key].(string)
	return s
}

func inputBool(input any, key string) bool {
	b, _ := asMap(input)[key].(bool)
	return b
}

func inputStrings(input any, key string) []string {
	raw, ok := asMap(input)[key].([]any)
	if !ok {
		if s, ok := asMap(input)[key].([]string); ok {
			return s
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func requireString(input any, key, proc string) (string, error) {
	s := inputString(input, key)
	if s == "" {
		return "", fmt.Errorf("%s: missing required input '%s'", proc, key)
	}
	return s, nil
}

// toTree converts a typed result into the plain mapping/sequence form the
// interpreter's reference resolution traverses.
func toTree(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// ---------------------------------------------------------------------------
// fs.*
// ---------------------------------------------------------------------------

func (p *Procedures) fsExists(_ context.Context, _ *agg.CallContext, input any) (any, error) {
	path, err := requireString(input, "path", "fs.exists")
	if err != nil {
		return nil, err
	}
	return map[string]any{"exists": p.fs.Exists(path)}, nil
}

func (p *Procedures) fsMkdir(_ context.Context, _ *agg.CallContext, input any) (any, error) {
	path, err := requireString(input, "path", "fs.mkdir")
	if err != nil {
		return nil, err
	}
	if err := p.fs.MkdirAll(path, 0755); err != nil {
		return nil, err
	}
	return map[string]any{"created": true}, nil
}

// fsEnsureDir creates path only when absent; two consecutive invocations are
// indistinguishable in observable effect.
func (p *Procedures) fsEnsureDir(_ context.Context, _ *agg.CallContext, input any) (any, error) {
	path, err := requireString(input, "path", "fs.ensureDir")
	if err != nil {
		return nil, err
	}
	if p.fs.Exists(path) {
		return map[string]any{"created": false}, nil
	}
	if err := p.fs.MkdirAll(path, 0755); err != nil {
		return nil, err
	}
	return map[string]any{"created": true}, nil
}

func (p *Procedures) fsReadJSON(_ context.Context, _ *agg.CallContext, input any) (any, error) {
	path, err := requireString(input, "path", "fs.read.json")
	if err != nil {
		return nil, err
	}
	var data any
	if err := p.fs.ReadJSON(path, &data); err != nil {
		return nil, err
	}
	return map[string]any{"data": data}, nil
}

func (p *Procedures) fsWrite(_ context.Context, _ *agg.CallContext, input any) (any, error) {
	path, err := requireString(input, "path", "fs.write")
	if err != nil {
		return nil, err
	}
	content := inputString(input, "content")
	if err := p.fs.WriteFile(path, []byte(content)); err != nil {
		return nil, err
	}
	return map[string]any{"written": true}, nil
}

func (p *Procedures) fsRm(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	path, err := requireString(input, "path", "fs.rm")
	if err != nil {
		return nil, err
	}
	recursive := inputBool(input, "recursive")
	force := inputBool(input, "force")

	timeout := RemoveFileTimeout
	if recursive {
		timeout = RemoveTimeout
	}
	rmErr := removeWithTimeout(ctx, p.fs, path, recursive, timeout)
	if rmErr != nil {
		if IsTimeout(rmErr) {
			return nil, rmErr
		}
		if force && os.IsNotExist(rmErr) {
			return map[string]any{"removed": false}, nil
		}
		return nil, rmErr
	}
	return map[string]any{"removed": true}, nil
}

// removeWithTimeout bounds a removal by the per-call limit. Removal is
// in-process, not a child process, so an expired removal cannot be killed: it
// keeps draining in the background while the caller gets TimeoutError with
// the remove phase tagged.
func removeWithTimeout(ctx context.Context, fs FileSystem, path string, recursive bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		if recursive {
			done <- fs.RemoveAll(path)
		} else {
			done <- fs.Remove(path)
		}
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return &TimeoutError{Phase: "remove", Limit: timeout.String()}
		}
		return ctx.Err()
	}
}

func (p *Procedures) fsGlob(_ context.Context, _ *agg.CallContext, input any) (any, error) {
	pattern, err := requireString(input, "pattern", "fs.glob")
	if err != nil {
		return nil, err
	}
	files, err := p.fs.Glob(pattern, inputString(input, "cwd"), inputStrings(input, "ignore"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"files": toTree(files)}, nil
}

func (p *Procedures) fsReaddir(_ context.Context, _ *agg.CallContext, input any) (any, error) {
	path, err := requireString(input, "path", "fs.readdir")
	if err != nil {
		return nil, err
	}
	entries, err := p.fs.ReadDir(path)
	if err != nil {
		return nil, err
	}
	return map[string]any{"entries": toTree(entries)}, nil
}

// ---------------------------------------------------------------------------
// shell / pnpm
// ---------------------------------------------------------------------------

func (p *Procedures) shellExec(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	command, err := requireString(input, "command", "shell.exec")
	if err != nil {
		return nil, err
	}
	var timeout time.Duration
	if secs, ok := asMap(input)["timeout"].(float64); ok {
		timeout = time.Duration(secs) * time.Second
	}
	result, err := p.run.Exec(ctx, command, inputString(input, "cwd"), timeout)
	if err != nil {
		return nil, err
	}
	return toTree(result), nil
}

func (p *Procedures) pnpmInstall(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	cwd, err := requireString(input, "cwd", "pnpm.install")
	if err != nil {
		return nil, err
	}
	result, err := p.run.Install(ctx, cwd, inputStrings(input, "packages"), inputBool(input, "dev"))
	if err != nil {
		return nil, err
	}
	return toTree(result), nil
}

func (p *Procedures) pnpmRun(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	cwd, err := requireString(input, "cwd", "pnpm.run")
	if err != nil {
		return nil, err
	}
	script, err := requireString(input, "script", "pnpm.run")
	if err != nil {
		return nil, err
	}
	result, err := p.run.Run(ctx, script, cwd)
	if err != nil {
		return nil, err
	}
	return toTree(result), nil
}

// ---------------------------------------------------------------------------
// git.*
// ---------------------------------------------------------------------------

func (p *Procedures) gitStatus(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	cwd, err := requireString(input, "cwd", "git.status")
	if err != nil {
		return nil, err
	}
	status, err := p.git.Status(ctx, cwd)
	if err != nil {
		return nil, NewGitFailedError("status", err)
	}
	return toTree(status), nil
}

func (p *Procedures) gitAdd(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	cwd, err := requireString(input, "cwd", "git.add")
	if err != nil {
		return nil, err
	}
	if err := p.git.Add(ctx, cwd, inputBool(input, "all")); err != nil {
		return nil, NewGitFailedError("add", err)
	}
	return map[string]any{"staged": true}, nil
}

func (p *Procedures) gitCommit(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	cwd, err := requireString(input, "cwd", "git.commit")
	if err != nil {
		return nil, err
	}
	message, err := requireString(input, "message", "git.commit")
	if err != nil {
		return nil, err
	}
	hash, err := p.git.Commit(ctx, cwd, message)
	if err != nil {
		return nil, NewGitFailedError("commit", err)
	}
	return map[string]any{"hash": hash}, nil
}

func (p *Procedures) gitPush(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	cwd, err := requireString(input, "cwd", "git.push")
	if err != nil {
		return nil, err
	}
	if err := p.git.Push(ctx, cwd); err != nil {
		return nil, NewGitFailedError("push", err)
	}
	return map[string]any{"pushed": true}, nil
}

func (p *Procedures) gitPull(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	cwd, err := requireString(input, "cwd", "git.pull")
	if err != nil {
		return nil, err
	}
	info, err := p.git.Pull(ctx, cwd, inputString(input, "remote"), inputBool(input, "rebase"))
	if err != nil {
		return nil, NewGitFailedError("pull", err)
	}
	return toTree(info), nil
}

func (p *Procedures) gitClone(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	url, err := requireString(input, "url", "git.clone")
	if err != nil {
		return nil, err
	}
	dest, err := requireString(input, "dest", "git.clone")
	if err != nil {
		return nil, err
	}
	if err := p.git.Clone(ctx, url, dest, inputString(input, "branch")); err != nil {
		return nil, err
	}
	return map[string]any{"cloned": true}, nil
}

func (p *Procedures) gitCheckout(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	cwd, err := requireString(input, "cwd", "git.checkout")
	if err != nil {
		return nil, err
	}
	ref, err := requireString(input, "ref", "git.checkout")
	if err != nil {
		return nil, err
	}
	if err := p.git.Checkout(ctx, cwd, ref); err != nil {
		return nil, NewGitFailedError("checkout", err)
	}
	return map[string]any{"ref": ref}, nil
}

func (p *Procedures) gitBranch(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	cwd, err := requireString(input, "cwd", "git.branch")
	if err != nil {
		return nil, err
	}
	branches, err := p.git.Branches(ctx, cwd)
	if err != nil {
		return nil, NewGitFailedError("branch", err)
	}
	out := make([]any, 0, len(branches))
	for _, b := range branches {
		out = append(out, map[string]any{"name": b})
	}
	return map[string]any{"branches": out}, nil
}

func (p *Procedures) gitRemote(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	cwd, err := requireString(input, "cwd", "git.remote")
	if err != nil {
		return nil, err
	}
	url, err := p.git.RemoteURL(ctx, cwd, inputString(input, "name"))
	if err != nil {
		return nil, NewGitFailedError("remote", err)
	}
	return map[string]any{"url": url}, nil
}

func (p *Procedures) gitInit(ctx context.Context, _ *agg.CallContext, input any) (any, error) {
	cwd, err := requireString(input, "cwd", "git.init")
	if err != nil {
		return nil, err
	}
	if err := p.git.Init(ctx, cwd); err != nil {
		return nil, NewGitFailedError("init", err)
	}
	return map[string]any{"initialized": true}, nil
}
