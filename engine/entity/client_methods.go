package entity

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/xiaonanln/typeconv"
)

// Suffixes of the methods clients may call. Fire_Client is called as "Fire".
const (
	ownClientSuffix  = "_Client"
	allClientsSuffix = "_AllClients"
)

type clientAccess uint8

const (
	accessOwnClient clientAccess = 1 << iota
	accessOtherClients
)

// clientMethod is a method of an entity type that clients may call
type clientMethod struct {
	name     string
	fn       reflect.Value
	access   clientAccess
	argTypes []reflect.Type
}

type clientMethodMap map[string]*clientMethod

// visit records method if its suffix opens it to clients: _Client to the entity's own client, _AllClients to every
// client that sees the entity. Other methods stay server only.
func (cm clientMethodMap) visit(method reflect.Method) bool {
	var access clientAccess
	var name string
	if strings.HasSuffix(method.Name, ownClientSuffix) {
		access = accessOwnClient
		name = strings.TrimSuffix(method.Name, ownClientSuffix)
	} else if strings.HasSuffix(method.Name, allClientsSuffix) {
		access = accessOwnClient | accessOtherClients
		name = strings.TrimSuffix(method.Name, allClientsSuffix)
	} else {
		return false
	}

	argTypes := make([]reflect.Type, method.Type.NumIn()-1) // without the receiver
	for i := range argTypes {
		argTypes[i] = method.Type.In(i + 1)
	}
	cm[name] = &clientMethod{
		name:     name,
		fn:       method.Func,
		access:   access,
		argTypes: argTypes,
	}
	return true
}

func (m *clientMethod) allows(ownClient bool) bool {
	if ownClient {
		return m.access&accessOwnClient != 0
	}
	return m.access&accessOtherClients != 0
}

// callArgs converts args to the parameter types of the method, after the receiver. Missing trailing arguments are
// zero values.
func (m *clientMethod) callArgs(receiver reflect.Value, args []interface{}) ([]reflect.Value, error) {
	if len(args) > len(m.argTypes) {
		return nil, errors.Errorf("%s takes %d arguments, got %d", m.name, len(m.argTypes), len(args))
	}
	in := make([]reflect.Value, len(m.argTypes)+1)
	in[0] = receiver
	for i, argType := range m.argTypes {
		if i < len(args) {
			in[i+1] = typeconv.Convert(args[i], argType)
		} else {
			in[i+1] = reflect.Zero(argType)
		}
	}
	return in, nil
}
