package simhost

// Shot metadata is delegated to the shotmeta store; writes to shots that are
// not alive are dropped like the real server does.

// SetShotMetaDataS implements bzapi.ShotMetadata.
func (h *Host) SetShotMetaDataS(guid uint32, key, value string) {
	if _, ok := h.shots[guid]; !ok {
		return
	}
	h.meta.SetShotMetaDataS(guid, key, value)
}

// SetShotMetaDataI implements bzapi.ShotMetadata.
func (h *Host) SetShotMetaDataI(guid uint32, key string, value int) {
	if _, ok := h.shots[guid]; !ok {
		return
	}
	h.meta.SetShotMetaDataI(guid, key, value)
}

// ShotMetaDataS implements bzapi.ShotMetadata.
func (h *Host) ShotMetaDataS(guid uint32, key string) string {
	return h.meta.ShotMetaDataS(guid, key)
}

// ShotMetaDataI implements bzapi.ShotMetadata.
func (h *Host) ShotMetaDataI(guid uint32, key string) int {
	return h.meta.ShotMetaDataI(guid, key)
}

// ShotHasMetaData implements bzapi.ShotMetadata.
func (h *Host) ShotHasMetaData(guid uint32, key string) bool {
	return h.meta.ShotHasMetaData(guid, key)
}

// ShotMeta returns a copy of a shot's metadata.
func (h *Host) ShotMeta(guid uint32) map[string]string {
	return h.meta.Snapshot(guid)
}
