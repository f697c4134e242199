// Package client talks to a running appdrawer server.
//
// A [Client] holds one command connection and performs request/response
// round-trips over it; calls are serialized. [Client.StartPolling] returns
// an [EventStream] reading from the window's event socket, and
// [Client.MapBuffer] maps a window's pixel buffer into the caller.
//
// Example usage:
//
//	c, err := client.Dial(ctx, paths.Socket(), client.Options{})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	id, err := c.AddWindow("clock", 200, 100)
//	if err != nil {
//	    return err
//	}
//
//	stream, err := c.StartPolling(id)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	for {
//	    ev, err := stream.Next()
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
package client
