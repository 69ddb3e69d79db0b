package building

// Progress is notified after each feature has been handled.
type Progress interface {
	FeatureDone(fid int64, produced int)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(fid int64, produced int)

// FeatureDone implements Progress.
func (f ProgressFunc) FeatureDone(fid int64, produced int) {
	f(fid, produced)
}

func notify(p Progress, fid int64, produced int) {
	if p != nil {
		p.FeatureDone(fid, produced)
	}
}
