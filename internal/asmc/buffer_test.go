package asmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferPushGrows(t *testing.T) {
	b := newBuffer(1)
	for i := 0; i < 10; i++ {
		b.push(byte(i))
	}
	assert.Equal(t, 10, b.Len())
	for i, v := range b.Bytes() {
		assert.Equal(t, byte(i), v)
	}
}

func TestBufferSizeOnlyTracksLengthNotBytes(t *testing.T) {
	b := newBuffer(4)
	b.sizeOnly = true
	b.push(1)
	b.pushU32(0xdeadbeef)
	assert.Equal(t, 5, b.Len())
	assert.Empty(t, b.Bytes(), "size-only mode must not retain bytes")
}

func TestBufferPushU16U32LittleEndian(t *testing.T) {
	b := newBuffer(8)
	b.pushU16(0x1234)
	b.pushU32(0xAABBCCDD)
	want := []byte{0x34, 0x12, 0xDD, 0xCC, 0xBB, 0xAA}
	assert.Equal(t, want, b.Bytes())
}

func TestBufferAddString(t *testing.T) {
	b := newBuffer(8)
	b.push(0)
	off := b.addString("foo")
	assert.EqualValues(t, 1, off)
	assert.Equal(t, []byte{0, 'f', 'o', 'o', 0}, b.Bytes())
}

func TestBufferReset(t *testing.T) {
	b := newBuffer(4)
	b.push(1)
	b.push(2)
	b.reset()
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Bytes())

	b.push(9)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, []byte{9}, b.Bytes())
}
