/*
Package othebrew provides the Hebrew script shaping engine for package otshape.

It contributes Hebrew-specific normalization composition and mark-reordering
logic through otshape's shaper hook interfaces.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package othebrew
