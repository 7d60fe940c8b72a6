package bind_group_provider

// BufferWrite describes a single GPU buffer write targeting a binding on a BindGroupProvider
// at a given byte offset. Writes are queued by the renderer and flushed before the frame is submitted.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Size returns the end offset of the write, the minimum buffer size that can hold it.
//
// Returns:
//   - uint64: Offset plus the length of Data
func (w BufferWrite) Size() uint64 {
	return w.Offset + uint64(len(w.Data))
}
