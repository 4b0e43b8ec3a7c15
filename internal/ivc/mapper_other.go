//go:build !unix

package ivc

// defaultMapper returns a Mapper that only performs address bookkeeping,
// for platforms without a unix-style mmap.
func defaultMapper() Mapper { return noopMapper{} }
