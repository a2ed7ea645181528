package imgfs

import "time"

// nowNano returns the current time as nanoseconds since the Unix epoch, the
// timestamp representation directory entries store in their created and
// lastModified fields.
func nowNano() int64 {
	return time.Now().UnixNano()
}
