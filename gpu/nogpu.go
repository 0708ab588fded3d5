//go:build nogpu

package gpu
