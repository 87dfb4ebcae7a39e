package voxel

import "errors"

var (
	// ErrInvalidFace is returned for a face code outside 0..5.
	ErrInvalidFace = errors.New("voxel: invalid face code")

	// ErrTexIndexOutOfRange is returned when an instance selects a texture
	// layer the bound array does not have.
	ErrTexIndexOutOfRange = errors.New("voxel: texture index out of range")

	// ErrShortBuffer is returned when decoding from a buffer smaller than
	// one record.
	ErrShortBuffer = errors.New("voxel: short buffer")

	// ErrEmptyTarget is returned when rendering into a zero-sized image.
	ErrEmptyTarget = errors.New("voxel: empty render target")

	// ErrNoTextures is returned when a frame has no texture array bound.
	ErrNoTextures = errors.New("voxel: no texture array bound")
)
