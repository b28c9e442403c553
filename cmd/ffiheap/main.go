// Command ffiheap exercises ownership handles against a native side: the
// in-process heap by default, or a WebAssembly guest's allocator when
// -wasm is given. Operations come from an -ops script or from the
// interactive TUI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/nativebind/ffitypes"
	"github.com/nativebind/ffitypes/native/hostheap"
	"github.com/nativebind/ffitypes/native/wasmalloc"
	"github.com/nativebind/ffitypes/track"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to a guest wasm module exporting the allocator (default: in-process heap)")
		ops         = flag.String("ops", "", "Operation script (str:hello,bytes:abc,clone:1,drop:1,list)")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *ops == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: ffiheap -ops str:hello,clone:1,drop:1,list")
		fmt.Fprintln(os.Stderr, "       ffiheap -wasm <guest.wasm> -ops ...")
		fmt.Fprintln(os.Stderr, "       ffiheap -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive && !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
		os.Exit(1)
	}

	if err := run(*wasmFile, *ops, *verbose, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// nativeSide is the slice of a native adapter the command needs. The
// in-process heap never fails to allocate, so hostSide adapts it to the
// error-returning shape of the guest adapter.
type nativeSide interface {
	NewString(s string) (ffitypes.OwnedString, error)
	NewBytes(content []byte) (ffitypes.OwnedBytes, error)
	Table() *track.Table
	Leaks() []track.Allocation
	Close() error
}

type hostSide struct {
	*hostheap.Heap
}

func (h hostSide) NewString(s string) (ffitypes.OwnedString, error) {
	return h.Heap.NewString(s), nil
}

func (h hostSide) NewBytes(content []byte) (ffitypes.OwnedBytes, error) {
	return h.Heap.NewBytes(content), nil
}

func run(wasmFile, ops string, verbose, interactive bool) error {
	ctx := context.Background()

	log := zap.NewNop()
	if verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		track.SetLogger(log)
		wasmalloc.SetLogger(log)
	}

	side, cleanup, err := openSide(ctx, wasmFile, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if interactive {
		return runInteractive(side, sideName(wasmFile))
	}

	sess := newSession(side)
	for _, op := range strings.Split(ops, ",") {
		out, err := sess.exec(strings.TrimSpace(op))
		if err != nil {
			return fmt.Errorf("op %q: %w", op, err)
		}
		fmt.Println(out)
	}

	if leaks := side.Leaks(); len(leaks) > 0 {
		fmt.Printf("\nLive allocations at exit:\n")
		for _, a := range leaks {
			fmt.Printf("  #%d %s ptr=0x%x size=%d\n", a.Seq, a.Kind, a.Ptr, a.Size)
		}
	}
	return side.Close()
}

// openSide builds the native side: the wasm guest's allocator when a
// module path is given, the in-process heap otherwise.
func openSide(ctx context.Context, wasmFile string, log *zap.Logger) (nativeSide, func(), error) {
	if wasmFile == "" {
		return hostSide{hostheap.New(hostheap.WithLogger(log))}, func() {}, nil
	}

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}

	rt := wazero.NewRuntime(ctx)
	mod, err := rt.Instantiate(ctx, data)
	if err != nil {
		rt.Close(ctx)
		return nil, nil, fmt.Errorf("instantiate: %w", err)
	}

	guest, err := wasmalloc.FromModule(ctx, mod, wasmalloc.WithLogger(log))
	if err != nil {
		rt.Close(ctx)
		return nil, nil, err
	}
	return guest, func() { rt.Close(ctx) }, nil
}

func sideName(wasmFile string) string {
	if wasmFile == "" {
		return "in-process heap"
	}
	return wasmFile
}

// session holds the handles created so far, numbered from 1, so script
// and TUI operations can refer back to them.
type session struct {
	side   nativeSide
	strs   map[int]*ffitypes.OwnedString
	bufs   map[int]*ffitypes.OwnedBytes
	nextID int
}

func newSession(side nativeSide) *session {
	return &session{
		side:   side,
		strs:   make(map[int]*ffitypes.OwnedString),
		bufs:   make(map[int]*ffitypes.OwnedBytes),
		nextID: 1,
	}
}

// exec runs one operation and returns a line describing what happened.
//
//	str:<text>    allocate an owned string
//	bytes:<text>  allocate owned bytes
//	clone:<id>    deep-copy handle <id>
//	drop:<id>     close handle <id>
//	list          describe all live handles
func (s *session) exec(op string) (string, error) {
	verb, arg, _ := strings.Cut(op, ":")
	switch verb {
	case "str":
		h, err := s.side.NewString(arg)
		if err != nil {
			return "", err
		}
		id := s.nextID
		s.nextID++
		s.strs[id] = &h
		return fmt.Sprintf("#%d str %q (%d bytes)", id, h.String(), h.Len()), nil

	case "bytes":
		h, err := s.side.NewBytes([]byte(arg))
		if err != nil {
			return "", err
		}
		id := s.nextID
		s.nextID++
		s.bufs[id] = &h
		return fmt.Sprintf("#%d bytes %q (%d bytes)", id, arg, h.Len()), nil

	case "clone":
		id, err := strconv.Atoi(arg)
		if err != nil {
			return "", fmt.Errorf("bad handle id %q", arg)
		}
		newID := s.nextID
		if h, ok := s.strs[id]; ok {
			dup := h.Clone()
			s.nextID++
			s.strs[newID] = &dup
			return fmt.Sprintf("#%d str %q (clone of #%d)", newID, dup.String(), id), nil
		}
		if h, ok := s.bufs[id]; ok {
			dup := h.Clone(ffitypes.BytesClone(s.side.(ffitypes.Runtime)))
			s.nextID++
			s.bufs[newID] = &dup
			return fmt.Sprintf("#%d bytes (clone of #%d, %d bytes)", newID, id, dup.Len()), nil
		}
		return "", fmt.Errorf("no live handle #%d", id)

	case "drop":
		id, err := strconv.Atoi(arg)
		if err != nil {
			return "", fmt.Errorf("bad handle id %q", arg)
		}
		if h, ok := s.strs[id]; ok {
			h.Close()
			delete(s.strs, id)
			return fmt.Sprintf("#%d dropped", id), nil
		}
		if h, ok := s.bufs[id]; ok {
			h.Close()
			delete(s.bufs, id)
			return fmt.Sprintf("#%d dropped", id), nil
		}
		return "", fmt.Errorf("no live handle #%d", id)

	case "list":
		return s.describe(), nil

	default:
		return "", fmt.Errorf("unknown op %q", verb)
	}
}

func (s *session) describe() string {
	if len(s.strs)+len(s.bufs) == 0 {
		return "no live handles"
	}
	var lines []string
	for id := 1; id < s.nextID; id++ {
		if h, ok := s.strs[id]; ok {
			lines = append(lines, fmt.Sprintf("#%d str %q", id, h.String()))
		}
		if h, ok := s.bufs[id]; ok {
			lines = append(lines, fmt.Sprintf("#%d bytes (%d bytes)", id, h.Len()))
		}
	}
	return strings.Join(lines, "\n")
}

// closeAll drops every handle still held, in id order.
func (s *session) closeAll() {
	for id := 1; id < s.nextID; id++ {
		if h, ok := s.strs[id]; ok {
			h.Close()
			delete(s.strs, id)
		}
		if h, ok := s.bufs[id]; ok {
			h.Close()
			delete(s.bufs, id)
		}
	}
}
