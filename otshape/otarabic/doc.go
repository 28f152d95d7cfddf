/*
Package otarabic provides the Arabic/Syriac shaping engine for package otshape.

It implements Arabic feature staging, joining-form mask setup, mark reordering,
and postprocessing steps used by the shared otshape pipeline. Fonts lacking
the Arabic form features are shaped with presentation forms from the cmap.
Other joining scripts (N'Ko, Mandaic, Mongolian, Phags-pa, Adlam) are shaped
by the same engine.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otarabic
