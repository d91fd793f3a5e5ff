/*
Package mobyns locates the network namespaces of Docker containers, so that
probing engines and resolvers can operate from inside containers. Additionally,
it discovers the DNS names of the other containers attached to the same Docker
networks as a given container, that is, the names reachable from inside that
container.
*/
package mobyns
