package jvm

import (
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/jbridge/errors"
)

// UtilClass is the managed helper that turns host errors into throwables.
const UtilClass = "io/github/wippyai/jbridge/Util"

const maxCauseDepth = 64

var errNestedException = stderrors.New("exception raised while translating a managed exception")

// ManagedException is a captured managed exception.
//
// Causes is ordered outermost first: index 0 is the thrown exception and the
// last entry is the root cause. StackFrames concatenates each throwable's
// frames in the same order.
type ManagedException struct {
	Throwable   *GlobalRef
	HostStack   string
	Causes      []string
	StackFrames []string
	Degraded    bool
}

func (e *ManagedException) Error() string {
	if len(e.Causes) == 0 {
		return "managed exception"
	}
	var b strings.Builder
	b.WriteString(e.Causes[0])
	for _, c := range e.Causes[1:] {
		b.WriteString("\nCaused by: ")
		b.WriteString(c)
	}
	return b.String()
}

// Message returns the outermost exception's description.
func (e *ManagedException) Message() string {
	if len(e.Causes) == 0 {
		return ""
	}
	return e.Causes[0]
}

// RootCause returns the innermost exception's description.
func (e *ManagedException) RootCause() string {
	if len(e.Causes) == 0 {
		return ""
	}
	return e.Causes[len(e.Causes)-1]
}

// ManagedStack renders the managed stack in the managed runtime's own style.
func (e *ManagedException) ManagedStack() string {
	var b strings.Builder
	b.WriteString(e.Message())
	for _, f := range e.StackFrames {
		b.WriteString("\n    at ")
		b.WriteString(f)
	}
	return b.String()
}

// Rethrow makes the retained throwable pending again on env.
func (e *ManagedException) Rethrow(env *Env) error {
	if e.Throwable.IsNull() {
		return env.ThrowNew("java/lang/RuntimeException", e.Message())
	}
	return env.Throw(e.Throwable)
}

// Release drops the retained throwable.
func (e *ManagedException) Release() {
	e.Throwable.Release()
}

// captureException takes the pending exception, clears it and walks its
// cause chain. Failures while walking degrade to whatever text was gathered.
func (e *Env) captureException() error {
	thr := e.native.ExceptionOccurred()
	e.native.ExceptionClear()

	me := &ManagedException{HostStack: string(debug.Stack())}
	if thr == 0 {
		me.Causes = []string{"managed exception without a throwable"}
		me.Degraded = true
		return me
	}

	local := e.wrap(thr)
	defer local.Delete()

	e.translating = true
	defer func() { e.translating = false }()

	if err := e.walkThrowable(local, me); err != nil {
		me.Degraded = true
		if len(me.Causes) == 0 {
			me.Causes = []string{"managed exception (details unavailable: " + err.Error() + ")"}
		}
		Logger().Debug("partial exception translation", zap.Error(err))
	}
	if g, err := e.NewGlobalRef(local); err == nil {
		me.Throwable = g
	} else {
		me.Degraded = true
	}
	return me
}

func (e *Env) walkThrowable(thr *LocalRef, me *ManagedException) error {
	cur := thr
	owned := false
	defer func() {
		if owned {
			cur.Delete()
		}
	}()

	for depth := 0; depth < maxCauseDepth && !cur.IsNull(); depth++ {
		s, err := e.ToString(cur)
		if err != nil {
			return err
		}
		me.Causes = append(me.Causes, s)

		frames, err := e.stackFrames(cur)
		if err != nil {
			return err
		}
		me.StackFrames = append(me.StackFrames, frames...)

		next, err := e.CallObjectMethod(cur, "getCause", "()Ljava/lang/Throwable;")
		if err != nil {
			return err
		}
		if owned {
			cur.Delete()
		}
		cur, owned = next, true
	}
	return nil
}

func (e *Env) stackFrames(thr *LocalRef) ([]string, error) {
	arr, err := e.CallObjectMethod(thr, "getStackTrace", "()[Ljava/lang/StackTraceElement;")
	if err != nil {
		return nil, err
	}
	if arr.IsNull() {
		return nil, errors.NullContract("Throwable.getStackTrace()")
	}
	defer arr.Delete()

	n, err := e.ArrayLength(arr)
	if err != nil {
		return nil, err
	}
	frames := make([]string, 0, n)
	for i := 0; i < n; i++ {
		el, err := e.ArrayElement(arr, i)
		if err != nil {
			return frames, err
		}
		if el.IsNull() {
			return frames, errors.NullContract("StackTraceElement")
		}
		s, err := e.ToString(el)
		el.Delete()
		if err != nil {
			return frames, err
		}
		frames = append(frames, s)
	}
	return frames, nil
}

// PanicError is a recovered panic from host code.
type PanicError struct {
	Value any
	Stack string
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// HostStack returns the stack captured at recovery.
func (p *PanicError) HostStack() string {
	return p.Stack
}

type hostStacker interface {
	HostStack() string
}

// ThrowHostError makes a managed exception built from err pending on env.
// A managed exception that crossed into host code is rethrown as is.
// If building the exception fails, a plain RuntimeException carrying the
// message is thrown instead.
func (e *Env) ThrowHostError(err error) {
	var me *ManagedException
	if stderrors.As(err, &me) && !me.Throwable.IsNull() {
		if terr := me.Rethrow(e); terr == nil {
			return
		}
	}

	msg := err.Error()
	var frames []string
	var hs hostStacker
	if stderrors.As(err, &hs) {
		frames = ParseHostStack(hs.HostStack())
	}

	if terr := e.throwFromHost(msg, frames); terr != nil {
		Logger().Debug("host error thrown as text only", zap.Error(terr))
		if e.native.ExceptionCheck() {
			e.native.ExceptionClear()
		}
		if terr := e.ThrowNew("java/lang/RuntimeException", msg); terr != nil {
			Logger().Warn("throw host error", zap.Error(terr), zap.String("message", msg))
		}
	}
}

func (e *Env) throwFromHost(msg string, frames []string) error {
	prev := e.translating
	e.translating = true
	defer func() { e.translating = prev }()

	util, err := e.FindClass(UtilClass)
	if err != nil {
		return err
	}
	defer util.Delete()

	jmsg, err := e.NewString(msg)
	if err != nil {
		return err
	}
	defer jmsg.Delete()

	strCls, err := e.FindClass("java/lang/String")
	if err != nil {
		return err
	}
	defer strCls.Delete()

	arr, err := e.NewObjectArray(len(frames), strCls)
	if err != nil {
		return err
	}
	defer arr.Delete()

	for i, f := range frames {
		s, err := e.NewString(f)
		if err != nil {
			return err
		}
		err = e.SetArrayElement(arr, i, s)
		s.Delete()
		if err != nil {
			return err
		}
	}

	thr, err := e.CallStaticObjectMethod(util, "exceptionFromHostError",
		"(Ljava/lang/String;[Ljava/lang/String;)Ljava/lang/Throwable;", RefValue(jmsg), RefValue(arr))
	if err != nil {
		return err
	}
	if thr.IsNull() {
		return errors.NullContract("Util.exceptionFromHostError()")
	}
	defer thr.Delete()
	return e.Throw(thr)
}

// ParseHostStack turns a goroutine stack dump into frames of the form
// "function (file:line)". The goroutine header and runtime frames are dropped.
func ParseHostStack(stack string) []string {
	lines := strings.Split(strings.TrimRight(stack, "\n"), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "goroutine ") {
		lines = lines[1:]
	}

	var frames []string
	for i := 0; i < len(lines); i++ {
		fn := strings.TrimSpace(lines[i])
		if fn == "" || strings.HasPrefix(lines[i], "\t") {
			continue
		}
		loc := ""
		if i+1 < len(lines) && strings.HasPrefix(lines[i+1], "\t") {
			loc = strings.TrimSpace(lines[i+1])
			if j := strings.LastIndex(loc, " +0x"); j >= 0 {
				loc = loc[:j]
			}
			i++
		}
		if isInternalFrame(fn) {
			continue
		}
		fn = trimCallArgs(fn)
		if loc != "" {
			fn += " (" + loc + ")"
		}
		frames = append(frames, fn)
	}
	return frames
}

func isInternalFrame(fn string) bool {
	return strings.HasPrefix(fn, "runtime.") ||
		strings.HasPrefix(fn, "runtime/debug.") ||
		strings.HasPrefix(fn, "panic(") ||
		strings.HasPrefix(fn, "created by ")
}

func trimCallArgs(fn string) string {
	if !strings.HasSuffix(fn, ")") {
		return fn
	}
	if i := strings.LastIndex(fn, "("); i > 0 {
		return fn[:i]
	}
	return fn
}
