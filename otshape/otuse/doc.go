/*
Package otuse provides a shaping engine for the complex scripts of South and
Southeast Asia which have no engine of their own, following the model of
Microsoft's Universal Shaping Engine.

Characters are classified into categories like base, halant, medial or vowel
sign. Runs are split into clusters with a grammar over these categories, and
shaped cluster by cluster. Pre-base vowels and medials are moved in front of
their base after the basic shaping features, and repha is moved to the end of
its cluster.

Categories are derived from Unicode character names and general categories,
with a list of exceptions for pre-base vowels and medials. This is less precise
than the Indic positional categories of Unicode, but covers the fonts in
common use.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otuse
