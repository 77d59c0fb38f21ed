package eventbus

import (
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventBus dispatches published values to every subscribed handler whose
// parameter list accepts them.
type EventBus interface {
	Publish(args ...any)
	Subscribe(handler any)
	SubscribersCount() int
}

type publisher struct {
	log      *logrus.Logger
	mu       sync.RWMutex
	handlers []reflect.Value
}

func NewEventPublisher(log *logrus.Logger) EventBus {
	return &publisher{log: log}
}

// MatchSignature reports whether handler can be called with args.
func MatchSignature(handler any, args []any) bool {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != len(args) {
		return false
	}
	for i, arg := range args {
		param := t.In(i)
		if arg == nil {
			if param.Kind() != reflect.Interface && param.Kind() != reflect.Ptr {
				return false
			}
			continue
		}
		argType := reflect.TypeOf(arg)
		if param.Kind() == reflect.Interface {
			if !argType.Implements(param) {
				return false
			}
			continue
		}
		if !argType.AssignableTo(param) {
			return false
		}
	}
	return true
}

// Publish calls the matching handlers in subscription order. A panicking
// handler is logged and does not stop the others.
func (p *publisher) Publish(args ...any) {
	p.mu.RLock()
	handlers := append([]reflect.Value(nil), p.handlers...)
	p.mu.RUnlock()

	handled := false
	for _, h := range handlers {
		if !MatchSignature(h.Interface(), args) {
			continue
		}
		if p.call(h, args) {
			handled = true
		}
	}
	if !handled && p.log != nil {
		p.log.Debugf("eventbus.Publish: no matching subscribers for %d args", len(args))
	}
}

func (p *publisher) call(h reflect.Value, args []any) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if p.log != nil {
				p.log.Errorf("eventbus: handler %s panicked with args %v: %v", h.Type().String(), args, r)
			}
		}
	}()
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			in[i] = reflect.Zero(h.Type().In(i))
			continue
		}
		in[i] = reflect.ValueOf(arg)
	}
	h.Call(in)
	return true
}

func (p *publisher) Subscribe(handler any) {
	v := reflect.ValueOf(handler)
	if v.Kind() != reflect.Func {
		panic("handler must be a function")
	}
	p.mu.Lock()
	p.handlers = append(p.handlers, v)
	p.mu.Unlock()
}

func (p *publisher) SubscribersCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.handlers)
}
