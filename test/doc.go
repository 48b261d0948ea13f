/*
Package test provides test harness helpers shared by the package tests, such
as a small local DNS server serving a static zone.
*/
package test
