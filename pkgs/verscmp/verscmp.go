// Package verscmp compares version strings that do not follow strict
// semver, the way GNU strverscmp / Debian version sorting does: text and
// numeric segments are compared separately, numeric segments by value.
// It backs version validation for libraries whose pkg-config version
// strings carry build counters or suffixes (e.g. x264's "0.164.3095 M").
package verscmp

/* Derived from the GNU filevercmp algorithm.

   Copyright (C) 1995 Ian Jackson <iwj10@cus.cam.ac.uk>
   Copyright (C) 2001 Anthony Towns <aj@azure.humbug.org.au>
   Copyright (C) 2008-2025 Free Software Foundation, Inc.

   This file is free software: you can redistribute it and/or modify
   it under the terms of the GNU Lesser General Public License as
   published by the Free Software Foundation, either version 3 of the
   License, or (at your option) any later version.

   This file is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU Lesser General Public License for more details.

   You should have received a copy of the GNU Lesser General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.  */

// Compare returns -1, 0, or 1 according to whether a sorts below, equal
// to, or above b.
func Compare(a, b string) int {
	s1, s2 := []byte(a), []byte(b)
	p1, p2 := 0, 0

	for p1 < len(s1) || p2 < len(s2) {
		firstDiff := 0

		// Non-digit run: compare by character order, '~' lowest.
		for (p1 < len(s1) && !isDigit(s1[p1])) || (p2 < len(s2) && !isDigit(s2[p2])) {
			var c1, c2 byte
			if p1 < len(s1) {
				c1 = s1[p1]
			}
			if p2 < len(s2) {
				c2 = s2[p2]
			}
			if o1, o2 := order(c1), order(c2); o1 != o2 {
				if o1 < o2 {
					return -1
				}
				return 1
			}
			p1++
			p2++
		}

		for p1 < len(s1) && s1[p1] == '0' {
			p1++
		}
		for p2 < len(s2) && s2[p2] == '0' {
			p2++
		}

		// Digit run: remember the first differing digit, the longer
		// run wins outright.
		for p1 < len(s1) && p2 < len(s2) && isDigit(s1[p1]) && isDigit(s2[p2]) {
			if firstDiff == 0 {
				firstDiff = int(s1[p1]) - int(s2[p2])
			}
			p1++
			p2++
		}
		if p1 < len(s1) && isDigit(s1[p1]) {
			return 1
		}
		if p2 < len(s2) && isDigit(s2[p2]) {
			return -1
		}
		if firstDiff != 0 {
			if firstDiff < 0 {
				return -1
			}
			return 1
		}
	}
	return 0
}

// order ranks a byte for the non-digit comparison: '~' sorts before
// everything (including end of string), letters by ASCII, other bytes
// after all letters.
func order(c byte) int {
	switch {
	case isDigit(c):
		return 0
	case isAlpha(c):
		return int(c)
	case c == '~':
		return -1
	case c == 0:
		return 0
	default:
		return int(c) + 256
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
