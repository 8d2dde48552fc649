package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	errNotFound := New(KindNotFound, 20003, "员工不存在")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"哨兵错误", errNotFound, KindNotFound},
		{"包装后的哨兵错误", fmt.Errorf("查询失败: %w", errNotFound), KindNotFound},
		{"引用计数错误", NewInUse("门店", 2), KindInUse},
		{"普通错误", errors.New("boom"), KindInternal},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("期望 %q，实际 %q", tt.want, got)
			}
		})
	}
}

func TestInUseError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("删除门店: %w", NewInUse("门店 South", 2))

	if !errors.Is(err, ErrInUse) {
		t.Fatal("期望 errors.Is(err, ErrInUse) 成立")
	}

	var inUse *InUseError
	if !errors.As(err, &inUse) {
		t.Fatal("期望可以取出 InUseError")
	}
	if inUse.Count != 2 {
		t.Errorf("期望引用数 2，实际 %d", inUse.Count)
	}
	if CodeOf(err) != ErrInUse.Code {
		t.Errorf("期望业务码 %d，实际 %d", ErrInUse.Code, CodeOf(err))
	}
}

func TestCodeOf_Unknown(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != 50000 {
		t.Errorf("期望 50000，实际 %d", got)
	}
}
