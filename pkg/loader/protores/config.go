// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package protores

import (
	"github.com/google/resrepo/pkg/resource/config"
	"github.com/google/resrepo/pkg/resproto"
)

// uiModeNormal is the compiled value of the "normal" UI mode, which has no
// folder qualifier and is equivalent to an unset mode.
const uiModeNormal = 1

// DecodeConfiguration maps a compiled configuration. Absent and zero fields
// map to unset axes; a nil message is the default configuration.
func DecodeConfiguration(m *resproto.Configuration) config.Configuration {
	if m == nil {
		return config.Default
	}
	c := config.Configuration{
		MCC:                   m.MCC,
		MNC:                   m.MNC,
		LayoutDirection:       config.LayoutDirection(m.LayoutDirection),
		SmallestScreenWidthDP: m.SmallestScreenWidthDP,
		ScreenWidthDP:         m.ScreenWidthDP,
		ScreenHeightDP:        m.ScreenHeightDP,
		ScreenSize:            config.ScreenSize(m.ScreenLayoutSize),
		ScreenLong:            config.ScreenLong(m.ScreenLayoutLong),
		ScreenRound:           config.ScreenRound(m.ScreenRound),
		WideColorGamut:        config.WideColorGamut(m.WideColorGamut),
		HDR:                   config.HDR(m.HDR),
		Orientation:           config.Orientation(m.Orientation),
		UIModeType:            config.UIModeType(m.UIModeType),
		UIModeNight:           config.UIModeNight(m.UIModeNight),
		Density:               m.Density,
		Touchscreen:           config.Touchscreen(m.Touchscreen),
		KeysHidden:            config.KeysHidden(m.KeysHidden),
		Keyboard:              config.Keyboard(m.Keyboard),
		NavHidden:             config.NavHidden(m.NavHidden),
		Navigation:            config.Navigation(m.Navigation),
		ScreenWidth:           m.ScreenWidth,
		ScreenHeight:          m.ScreenHeight,
		SDKVersion:            m.SDKVersion,
	}
	if c.UIModeType == uiModeNormal {
		c.UIModeType = 0
	}
	if m.Locale != "" {
		if tag, err := config.NormalizeLocale(m.Locale); err == nil {
			c.Locale = tag
		} else {
			c.Locale = m.Locale
		}
	}
	return c
}
