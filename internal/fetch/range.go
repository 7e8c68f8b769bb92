package fetch

import "fmt"

// TickRange represents an inclusive tick range.
type TickRange struct {
	From int32
	To   int32
}

// SplitTickRange splits a tick range into chunks spanning at most chunkSize ticks.
func SplitTickRange(from, to int32, chunkSize int64) ([]TickRange, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to tick must be >= from tick")
	}

	ranges := make([]TickRange, 0)
	start := int64(from)
	end64 := int64(to)
	for start <= end64 {
		remaining := end64 - start + 1
		var end int64
		if remaining <= chunkSize {
			end = end64
		} else {
			end = start + chunkSize - 1
		}
		ranges = append(ranges, TickRange{From: int32(start), To: int32(end)})
		if end == end64 {
			break
		}
		start = end + 1
	}

	return ranges, nil
}
