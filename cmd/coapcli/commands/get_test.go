package commands

import "testing"

func TestBlockSizeToSZX(t *testing.T) {
	szx, err := blockSizeToSZX(64)
	if err != nil {
		t.Fatal(err)
	}
	if szx.Size() != 64 {
		t.Errorf("expected size 64; got %d", szx.Size())
	}
}

func TestBlockSizeToSZX_Rejected(t *testing.T) {
	if _, err := blockSizeToSZX(17); err == nil {
		t.Fatal("expected an error for a non-power-of-two block size")
	}
}
