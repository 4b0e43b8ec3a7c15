package device

import "testing"

func TestCachedRegionsBasic(t *testing.T) {
	cr := NewCachedRegions([]Region{
		{RegionId: 0, Name: "ctrl", BaseOffset: 0, Length: 0x10, Type: RegionControl, Perms: PermReadWrite},
		{RegionId: 1, Name: "data", BaseOffset: 0x10, Length: 0x100, Type: RegionData, Perms: PermRead},
	})

	hit, ok := cr.Lookup(0x08)
	if !ok || hit.RegionId != 0 || hit.Offset != 0x08 {
		t.Fatalf("lookup(0x08) = %+v, %v", hit, ok)
	}

	hit, ok = cr.Lookup(0x20)
	if !ok || hit.RegionId != 1 || hit.Offset != 0x10 {
		t.Fatalf("lookup(0x20) = %+v, %v", hit, ok)
	}

	if _, ok := cr.Lookup(0x200); ok {
		t.Fatalf("lookup(0x200) should miss")
	}
}

func TestCachedRegionsUpdate(t *testing.T) {
	cr := NewCachedRegions([]Region{
		{RegionId: 0, BaseOffset: 0, Length: 0x10},
	})
	if v := cr.Version(); v != 0 {
		t.Fatalf("initial version = %d, want 0", v)
	}

	cr.Update([]Region{
		{RegionId: 5, BaseOffset: 0x40, Length: 0x10},
	})
	if v := cr.Version(); v != 1 {
		t.Fatalf("version after update = %d, want 1", v)
	}

	if _, ok := cr.Lookup(0x08); ok {
		t.Fatalf("stale region should no longer match after update")
	}
	hit, ok := cr.Lookup(0x44)
	if !ok || hit.RegionId != 5 {
		t.Fatalf("lookup(0x44) after update = %+v, %v", hit, ok)
	}
}
