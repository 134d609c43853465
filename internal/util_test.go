package internal

import (
	"context"
	"testing"
)

type hook interface{ Fire(context.Context) }

type ptrHook struct{}

func (*ptrHook) Fire(context.Context) {}

type valueHook struct{}

func (valueHook) Fire(context.Context) {}

func TestIsTypedNil(t *testing.T) {
	var (
		nilPtr     *int
		nilSlice   []string
		nilMap     map[string]int
		nilFunc    func()
		nilChan    chan int
		nilHookPtr *ptrHook
		nilIface   hook
	)

	cases := []struct {
		name string
		val  any
		want bool
	}{
		{name: "nil", val: nil, want: true},
		{name: "nil_ptr", val: nilPtr, want: true},
		{name: "nil_slice", val: nilSlice, want: true},
		{name: "nil_map", val: nilMap, want: true},
		{name: "nil_func", val: nilFunc, want: true},
		{name: "nil_chan", val: nilChan, want: true},
		{name: "nil_interface_var", val: nilIface, want: true},
		{name: "typed_nil_behind_interface", val: hook(nilHookPtr), want: true},
		{name: "pointer_receiver_value", val: hook(&ptrHook{}), want: false},
		{name: "struct_value", val: hook(valueHook{}), want: false},
		{name: "empty_slice", val: []string{}, want: false},
		{name: "non_nil_value", val: 123, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTypedNil(tc.val); got != tc.want {
				t.Fatalf("IsTypedNil(%v)=%v, want %v", tc.name, got, tc.want)
			}
		})
	}
}
