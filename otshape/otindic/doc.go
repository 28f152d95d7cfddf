/*
Package otindic provides the shaping engine for the nine major Indic scripts
of Unicode: Devanagari, Bengali, Gurmukhi, Gujarati, Oriya, Tamil, Telugu,
Kannada and Malayalam.

Runs are split into syllables before GSUB. Syllables are reordered twice: once
after the localized forms have been applied, putting pre-base matras and reph
into logical order for the basic shaping features, and once more after the
basic features, moving matras, reph and pre-base-reordering consonants to
their visual positions.

Fonts with old-style script tags ('deva', 'beng', ...) and new-style tags
('dev2', 'bng2', ...) are both supported.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otindic
