package afpacket

import "fmt"

const (
	tpacketHdrLen = 52 // TPACKET3_HDRLEN, rounded
	maxBlockSize  = 4 << 20
)

// recomputeSize derives a PACKET_MMAP ring layout of roughly bufferSizeMB
// megabytes able to hold snapLen-byte frames. The block size is a multiple of
// both the page size and the frame size, as the kernel requires.
func recomputeSize(bufferSizeMB, snapLen, pageSize int) (frameSize, blockSize, numBlocks int, err error) {
	switch {
	case bufferSizeMB <= 0:
		return 0, 0, 0, fmt.Errorf("buffer size must be positive, got %d MB", bufferSizeMB)
	case snapLen <= 0:
		return 0, 0, 0, fmt.Errorf("snap length must be positive, got %d", snapLen)
	case pageSize <= 0 || pageSize%16 != 0:
		return 0, 0, 0, fmt.Errorf("page size must be a positive multiple of 16, got %d", pageSize)
	}

	frameSize = roundUp(tpacketHdrLen+snapLen, pageSize)

	blockSize = frameSize
	if frameSize < maxBlockSize {
		blockSize = frameSize * (maxBlockSize / frameSize)
	}

	numBlocks = bufferSizeMB << 20 / blockSize
	if numBlocks < 1 {
		numBlocks = 1
	}
	return frameSize, blockSize, numBlocks, nil
}

func roundUp(n, multiple int) int {
	return (n + multiple - 1) / multiple * multiple
}
