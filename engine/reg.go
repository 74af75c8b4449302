package engine

import (
	"fmt"
	"strings"

	"github.com/k2field/worklistbroker/logkeys"
	"github.com/k2field/worklistbroker/schema"
)

type handlerKey struct {
	object string
	method string
}

func newHandlerKey(object, method string) handlerKey {
	return handlerKey{object: strings.ToLower(object), method: strings.ToLower(method)}
}

// Register binds h to method of obj. The object is registered with the
// engine the first time one of its methods is bound.
func (e *Engine) Register(obj *schema.Object, method string, h Handler) error {
	if obj == nil || h == nil {
		return fmt.Errorf("register %s: nil object or handler", method)
	}
	m, ok := obj.Method(method)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownMethod, obj.Name(), method)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	lname := strings.ToLower(obj.Name())
	if have, ok := e.objIdx[lname]; ok && have != obj {
		return fmt.Errorf("%w: %s", ErrDuplicateObject, obj.Name())
	} else if !ok {
		e.objIdx[lname] = obj
		e.objects = append(e.objects, obj)
	}
	key := newHandlerKey(obj.Name(), m.Name)
	if _, ok := e.handlers[key]; ok {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateHandler, obj.Name(), m.Name)
	}
	e.handlers[key] = h
	e.logger.Debug(
		logkeys.Message, "registered handler",
		logkeys.Object, obj.Name(),
		logkeys.Method, m.Name,
	)
	return nil
}

// RegisterAll binds handlers keyed by method name to methods of obj.
func (e *Engine) RegisterAll(obj *schema.Object, handlers map[string]Handler) error {
	for method, h := range handlers {
		if err := e.Register(obj, method, h); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) handler(object, method string) Handler {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.handlers[newHandlerKey(object, method)]
}
