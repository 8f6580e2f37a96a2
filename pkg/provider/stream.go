package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/SenseNet/sn-blob-azure/pkg/blockid"
	"github.com/SenseNet/sn-blob-azure/pkg/blockstore"
)

// Stream 是读/写两种流句柄的公共面
type Stream interface {
	io.Closer
	BlobID() string
	CanWrite() bool
}

// =============================================================================
// 1. ReadStream: 惰性的远端范围读取
// =============================================================================

// ReadStream 将已提交的 Blob 暴露为 io.ReadSeekCloser。
// 打开时只查一次对象长度，真正的下载请求推迟到第一次 Read；
// Seek 会丢弃当前连接，下一次 Read 从新位置重新发起范围请求。
//
// ctx 在打开时捕获：io.Reader 的签名里没有 context 的位置，
// 这个流的生命周期就绑在打开它的那次调用上。
type ReadStream struct {
	ctx    context.Context
	store  blockstore.Store
	blobID string
	length int64
	pos    int64
	body   io.ReadCloser // 当前范围请求的响应体，nil 表示还没发起
}

// GetReadStream 打开一个读取流。没有副作用；对象不存在时报 ErrNotFound。
func (p *Provider) GetReadStream(ctx context.Context, tc *TransferContext) (*ReadStream, error) {
	if tc.Data.IsEmpty() {
		return nil, ErrNotAllocated
	}
	length, err := p.store.Size(ctx, tc.Data.BlobID)
	if err != nil {
		return nil, err
	}
	return &ReadStream{
		ctx:    ctx,
		store:  p.store,
		blobID: tc.Data.BlobID,
		length: length,
	}, nil
}

func (s *ReadStream) Read(p []byte) (int, error) {
	if s.pos >= s.length {
		return 0, io.EOF
	}
	if s.body == nil {
		body, err := s.store.Download(s.ctx, s.blobID, s.pos, -1)
		if err != nil {
			return 0, err
		}
		s.body = body
	}
	n, err := s.body.Read(p)
	s.pos += int64(n)
	return n, err
}

// Seek 支持随机访问。只移动游标，不发请求。
func (s *ReadStream) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	case io.SeekEnd:
		target = s.length + offset
	default:
		return 0, fmt.Errorf("invalid seek whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("seek to negative position %d in blob %s", target, s.blobID)
	}
	if target != s.pos {
		s.discardBody()
		s.pos = target
	}
	return s.pos, nil
}

// Size 返回对象的总字节长度
func (s *ReadStream) Size() int64 { return s.length }

func (s *ReadStream) BlobID() string { return s.blobID }
func (s *ReadStream) CanWrite() bool { return false }

func (s *ReadStream) Close() error {
	return s.discardBody()
}

func (s *ReadStream) discardBody() error {
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	return err
}

// =============================================================================
// 2. WriteStream: 按块边界缓冲的写入流
// =============================================================================

// WriteStream 将离散的 Write 调用重新切齐到约定的块边界：
// 内部缓冲攒满一个块就暂存一个远端块，Close 时暂存残块并提交。
// 这是一个典型的“缓冲-消费”状态机。
//
// 同一个流只能由一个调用方使用 (协议要求同一对象的写入串行)。
type WriteStream struct {
	ctx       context.Context
	store     blockstore.Store
	blobID    string
	chunkSize int
	meta      map[string]string

	buf    []byte // 内部缓冲：还没攒满一个块的字节
	staged int    // 已暂存的块数
	closed bool
}

// GetWriteStream 打开一个写入流。
// 元数据在这里就打上去，而不是等到关闭：tag-then-fill——
// 有些客户端要求元数据在写会话开始前就位，而且万一写入半途而废，
// 孤儿对象上至少留着可供清理的标签。
// 对象已存在时只更新元数据，不动内容；不存在时提交一个带元数据的空对象。
func (p *Provider) GetWriteStream(ctx context.Context, tc *TransferContext) (*WriteStream, error) {
	if tc.Data.IsEmpty() {
		return nil, ErrNotAllocated
	}
	if tc.Data.ChunkSize <= 0 {
		return nil, &ConfigMismatchError{
			BlobID: tc.Data.BlobID, ChunkSize: tc.Data.ChunkSize,
			Reason: "chunk size was never agreed at allocation",
		}
	}

	meta := tc.blobMetadata()
	err := p.store.SetMetadata(ctx, tc.Data.BlobID, meta)
	if errors.Is(err, blockstore.ErrNotFound) {
		err = p.store.CommitBlockList(ctx, tc.Data.BlobID, nil, meta)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stamp metadata on blob %s: %w", tc.Data.BlobID, err)
	}

	return &WriteStream{
		ctx:       ctx,
		store:     p.store,
		blobID:    tc.Data.BlobID,
		chunkSize: tc.Data.ChunkSize,
		meta:      meta,
	}, nil
}

func (w *WriteStream) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write to closed stream for blob %s", w.blobID)
	}

	// 逐段吸收输入：攒满一个块就立刻暂存，缓冲永远不会超过一个块。
	// 暂存失败时攒满的块留在缓冲里，下一次 Write 或 Close 会重试；
	// 返回值如实报告本次调用已接收的字节数，调用方不会重复提交同一段数据。
	written := 0
	for len(p) > 0 {
		n := w.chunkSize - len(w.buf)
		if n > len(p) {
			n = len(p)
		}
		w.buf = append(w.buf, p[:n]...)
		p = p[n:]
		written += n

		if len(w.buf) == w.chunkSize {
			if err := w.stageNext(w.buf); err != nil {
				return written, err
			}
			w.buf = w.buf[:0]
		}
	}
	return written, nil
}

// Close 暂存残块 (如果有)，然后提交完整的块列表。
// 对象在这一刻才变得可读。重复 Close 是无害的。
func (w *WriteStream) Close() error {
	if w.closed {
		return nil
	}

	if len(w.buf) > 0 {
		if err := w.stageNext(w.buf); err != nil {
			return err
		}
		w.buf = nil
	}

	ids, err := blockid.Sequence(w.staged)
	if err != nil {
		return fmt.Errorf("cannot derive commit list for blob %s: %w", w.blobID, err)
	}
	if err := w.store.CommitBlockList(w.ctx, w.blobID, ids, w.meta); err != nil {
		return err
	}
	w.closed = true
	return nil
}

func (w *WriteStream) BlobID() string { return w.blobID }
func (w *WriteStream) CanWrite() bool { return true }

func (w *WriteStream) stageNext(data []byte) error {
	blockID, err := blockid.Encode(w.staged + 1)
	if err != nil {
		return fmt.Errorf("cannot derive block id for blob %s: %w", w.blobID, err)
	}
	if err := w.store.StageBlock(w.ctx, w.blobID, blockID, data); err != nil {
		return err
	}
	w.staged++
	return nil
}

// =============================================================================
// 3. CloneStream
// =============================================================================

// CloneStream 基于同一个对象克隆出一个全新的流句柄：
// 写流克隆出写流，其他情况克隆出读流。永远不返回原实例。
func (p *Provider) CloneStream(ctx context.Context, tc *TransferContext, s Stream) (Stream, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot clone a nil stream")
	}
	if s.CanWrite() {
		return p.GetWriteStream(ctx, tc)
	}
	return p.GetReadStream(ctx, tc)
}
