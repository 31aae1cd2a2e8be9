package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renjie/prism-power/pkg/adapters/fake"
	"github.com/renjie/prism-power/pkg/core/domain"
	"github.com/renjie/prism-power/pkg/core/services"
)

func TestCanonicalize(t *testing.T) {
	r := services.NewIdentityResolver()

	cases := []struct {
		name  string
		uid   int
		label string
		want  int
	}{
		{"application unchanged", 10042, "com.a", 10042},
		{"secondary user app unchanged", 110042, "", 110042},
		{"shared gid to primary user app", domain.SharedAppGID(10042), "dex2oat", 10042},
		{"system component collapses", 1027, "nfc", domain.SystemUID},
		{"mediaserver kept apart", domain.MediaUID, services.MediaServerLabel, domain.MediaUID},
		{"media uid without label collapses", domain.MediaUID, "", domain.SystemUID},
		{"shared gid of system uid collapses", domain.SharedAppGID(domain.LogUID), "", domain.SystemUID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Canonicalize(tc.uid, tc.label)
			assert.Equal(t, tc.want, got)
			// 幂等
			assert.Equal(t, got, r.Canonicalize(got, tc.label))
		})
	}
}

func TestCoalesceSharedGroup(t *testing.T) {
	c := services.NewCoalescer(nil)
	shared := domain.NewAppRecord(domain.SharedAppGID(10001), 3.0, "dex2oat")
	shared.DominantPackage = "dex2oat"
	app := domain.NewAppRecord(10001, 4.0, "com.example")

	out := c.Coalesce([]domain.PowerRecord{shared, app})
	require.Len(t, out, 1)
	assert.Equal(t, 10001, out[0].UID())
	assert.InDelta(t, 7.0, out[0].PowerMah, 1e-12)
	assert.Equal(t, "dex2oat", out[0].DominantPackage)
	assert.Equal(t, []string{"dex2oat", "com.example"}, out[0].Packages)
}

func TestCoalesceSharedGroupAcrossUsers(t *testing.T) {
	c := services.NewCoalescer(nil)
	primary := domain.NewAppRecord(domain.UIDFor(0, domain.SharedAppGID(10001)), 3.0, "a")
	secondary := domain.NewAppRecord(domain.UIDFor(10, domain.SharedAppGID(10001)), 4.0, "b")
	require.Equal(t, 1050001, secondary.UID())

	out := c.Coalesce([]domain.PowerRecord{primary, secondary})
	require.Len(t, out, 1)
	assert.Equal(t, domain.UIDFor(domain.UserSystem, 10001), out[0].UID())
	assert.InDelta(t, 7.0, out[0].PowerMah, 1e-12)
	assert.Equal(t, []string{"a", "b"}, out[0].Packages)
}

func TestCoalesceMediaServerException(t *testing.T) {
	c := services.NewCoalescer(nil)
	media := domain.NewAppRecord(domain.MediaUID, 5.0)
	media.DominantPackage = services.MediaServerLabel
	logd := domain.NewAppRecord(domain.LogUID, 2.0)
	system := domain.NewAppRecord(domain.SystemUID, 1.0)

	out := c.Coalesce([]domain.PowerRecord{media, logd, system})
	require.Len(t, out, 2)
	assert.Equal(t, domain.MediaUID, out[0].UID())
	assert.Equal(t, 5.0, out[0].PowerMah)
	assert.Equal(t, domain.SystemUID, out[1].UID())
	assert.Equal(t, 3.0, out[1].PowerMah)
}

func TestCoalescePassThrough(t *testing.T) {
	c := services.NewCoalescer(nil)
	in := []domain.PowerRecord{
		domain.NewAppRecord(domain.RootUID, 2.0),
		domain.NewAppRecord(domain.RootUID, 1.0),
		domain.NewBucketRecord(domain.DrainScreen, 3.0),
	}
	out := c.Coalesce(in)
	require.Len(t, out, 3)
	assert.Equal(t, domain.DrainScreen, out[0].Drain)
	assert.Equal(t, 2.0, out[1].PowerMah)
	assert.Equal(t, 1.0, out[2].PowerMah)

	assert.Nil(t, c.Coalesce(nil))
}

func TestCoalesceOrdering(t *testing.T) {
	c := services.NewCoalescer(nil)
	in := []domain.PowerRecord{
		domain.NewAppRecord(10002, 5),
		domain.NewBucketRecord(domain.DrainWifi, 5),
		domain.NewAppRecord(10001, 5),
		domain.NewBucketRecord(domain.DrainIdle, 5),
		domain.NewAppRecord(10003, 9),
	}
	out := c.Coalesce(in)
	require.Len(t, out, 5)

	assert.Equal(t, 10003, out[0].UID())
	// 相同功耗: 无归属方在前 (保持输入顺序), 有归属方按 UID 升序
	assert.Equal(t, domain.DrainWifi, out[1].Drain)
	assert.Equal(t, domain.DrainIdle, out[2].Drain)
	assert.Equal(t, 10001, out[3].UID())
	assert.Equal(t, 10002, out[4].UID())
}

func TestCoalesceDoesNotMutateInput(t *testing.T) {
	c := services.NewCoalescer(nil)
	in := []domain.PowerRecord{
		domain.NewAppRecord(10001, 1.0, "a"),
		domain.NewAppRecord(10001, 2.0, "b"),
		domain.NewAppRecord(domain.SharedAppGID(10001), 3.0, "c"),
	}
	c.Coalesce(in)

	assert.Equal(t, 1.0, in[0].PowerMah)
	assert.Equal(t, []string{"a"}, in[0].Packages)
	assert.Equal(t, domain.SharedAppGID(10001), in[2].UID())
}

func TestCoalesceInvariants(t *testing.T) {
	c := services.NewCoalescer(nil)
	resolver := services.NewIdentityResolver()
	in := fake.Records()

	out := c.Coalesce(in)

	// 合并前后总量守恒
	var before, after float64
	for _, r := range in {
		before += r.PowerMah
	}
	for _, r := range out {
		after += r.PowerMah
	}
	assert.InDelta(t, before, after, 1e-9)

	// 每个规范 UID 只出现一次, 且全部已规范化
	seen := make(map[int]bool)
	for _, r := range out {
		if !r.HasOwner() {
			continue
		}
		assert.False(t, seen[r.UID()], "uid %d appears twice", r.UID())
		seen[r.UID()] = true
		assert.Equal(t, r.UID(), resolver.Canonicalize(r.UID(), r.DominantPackage))
	}

	// 降序
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].PowerMah, out[i].PowerMah)
	}

	// 再次合并结果不变
	again := c.Coalesce(out)
	require.Len(t, again, len(out))
	for i := range out {
		assert.Equal(t, out[i].UID(), again[i].UID())
		assert.Equal(t, out[i].Drain, again[i].Drain)
		assert.Equal(t, out[i].PowerMah, again[i].PowerMah)
	}
}

func TestCoalesceDemoData(t *testing.T) {
	out := services.NewCoalescer(nil).Coalesce(fake.Records())

	// 12 个归类桶 + 100 个应用 + root + system (logd 共享 GID)
	require.Len(t, out, 12+100+1+1)

	// dex2oat 分别并入 10000 / 10001
	assert.Equal(t, 10000, out[0].UID())
	assert.Equal(t, 75.0, out[0].PowerMah)
	assert.Equal(t, 10001, out[1].UID())
	assert.Equal(t, 75.0, out[1].PowerMah)
	// root 不参与合并, 作为无归属方排在同功耗应用之前
	assert.Equal(t, domain.RootUID, out[2].UID())
	assert.Equal(t, 10002, out[3].UID())

	var system *domain.PowerRecord
	for i := range out {
		if out[i].HasOwner() && out[i].UID() == domain.SystemUID {
			system = &out[i]
		}
	}
	require.NotNil(t, system)
	assert.Equal(t, 9.0, system.PowerMah)
}
