/*
Package otcore provides the baseline shaping engine for package otshape.

The core shaper implements neutral OpenType shaping behavior and is intended as
the fallback engine when no script-specific engine is a better match. It
handles right-to-left runs of scripts without a dedicated engine as well.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otcore
