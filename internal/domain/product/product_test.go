package product

import (
	"errors"
	"testing"
)

func TestResolveCategory(t *testing.T) {
	five := int64(5)
	six := int64(6)

	tests := []struct {
		name      string
		requested *int64
		parent    int64
		want      int64
		wantErr   error
	}{
		{name: "filled_from_parent", requested: nil, parent: 5, want: 5},
		{name: "matching", requested: &five, parent: 5, want: 5},
		{name: "mismatch", requested: &six, parent: 5, wantErr: ErrSubcategoryMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCategory(tt.requested, tt.parent)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got err %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}
